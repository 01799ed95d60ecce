package market

import (
	"fmt"
	"sort"
)

// Logical table names. These appear in reset reports and state summaries;
// the order constants below define referential dependency.
const (
	TableSellers      = "sellers"
	TableProductTypes = "product_types"
	TableListings     = "listings"
	TableInventory    = "inventory"
	TableOrders       = "orders"
	TableOrderItems   = "order_items"
)

// ClearOrder lists tables children-first, so clearing in this order never
// leaves a row pointing at a removed parent.
func ClearOrder() []string {
	return []string{
		TableOrderItems,
		TableOrders,
		TableInventory,
		TableListings,
		TableProductTypes,
		TableSellers,
	}
}

// TableCount pairs a table name with a row count.
type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// Tables is the raw per-session schema: five maps standing in for the six
// logical tables (order items live inside their orders). Tables does no
// locking; the owning Store serializes access, and the reseed engine mutates
// it under Store.Exclusive.
type Tables struct {
	sellers      map[string]*Seller
	productTypes map[string]*ProductTypeDef
	listings     map[listingKey]*Listing
	inventory    map[listingKey]*InventoryRecord
	orders       map[string]*Order
}

// NewTables returns an empty schema.
func NewTables() *Tables {
	return &Tables{
		sellers:      make(map[string]*Seller),
		productTypes: make(map[string]*ProductTypeDef),
		listings:     make(map[listingKey]*Listing),
		inventory:    make(map[listingKey]*InventoryRecord),
		orders:       make(map[string]*Order),
	}
}

// InsertSeller adds a seller row.
func (t *Tables) InsertSeller(s *Seller) error {
	if s.SellerID == "" {
		return &ValidationError{Field: "sellerId", Message: "must not be empty"}
	}
	if _, exists := t.sellers[s.SellerID]; exists {
		return &ConflictError{Resource: TableSellers, ID: s.SellerID}
	}
	t.sellers[s.SellerID] = s
	return nil
}

// InsertProductType adds a catalog row.
func (t *Tables) InsertProductType(pt *ProductTypeDef) error {
	if pt.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if _, exists := t.productTypes[pt.Name]; exists {
		return &ConflictError{Resource: TableProductTypes, ID: pt.Name}
	}
	t.productTypes[pt.Name] = pt
	return nil
}

// InsertListing adds a listing row. The referenced seller must exist; the
// (sellerId, sku) pair must be new. Attributes are normalized to JSON value
// types and the seller name is denormalized onto the row.
func (t *Tables) InsertListing(l *Listing) error {
	if l.SellerID == "" {
		return &ValidationError{Field: "sellerId", Message: "must not be empty"}
	}
	if l.SKU == "" {
		return &ValidationError{Field: "sku", Message: "must not be empty"}
	}
	seller, ok := t.sellers[l.SellerID]
	if !ok {
		return &NotFoundError{Resource: TableSellers, ID: l.SellerID}
	}
	key := listingKey{l.SellerID, l.SKU}
	if _, exists := t.listings[key]; exists {
		return &ConflictError{Resource: TableListings, ID: key.String()}
	}
	attrs, err := normalizeAttributes(l.Attributes)
	if err != nil {
		return &ValidationError{Field: "attributes", Message: err.Error()}
	}
	l.Attributes = attrs
	l.SellerName = seller.Name
	if !l.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status '%s'", l.Status)}
	}
	t.listings[key] = l
	return nil
}

// InsertInventory adds a stock row for an existing listing.
func (t *Tables) InsertInventory(r *InventoryRecord) error {
	key := listingKey{r.SellerID, r.SKU}
	if _, ok := t.listings[key]; !ok {
		return &NotFoundError{Resource: TableListings, ID: key.String()}
	}
	if _, exists := t.inventory[key]; exists {
		return &ConflictError{Resource: TableInventory, ID: key.String()}
	}
	t.inventory[key] = r
	return nil
}

// InsertOrder adds an order row with its embedded items.
func (t *Tables) InsertOrder(o *Order) error {
	if o.OrderID == "" {
		return &ValidationError{Field: "orderId", Message: "must not be empty"}
	}
	if _, ok := t.sellers[o.SellerID]; !ok {
		return &NotFoundError{Resource: TableSellers, ID: o.SellerID}
	}
	if _, exists := t.orders[o.OrderID]; exists {
		return &ConflictError{Resource: TableOrders, ID: o.OrderID}
	}
	t.orders[o.OrderID] = o
	return nil
}

// ClearAll empties every table children-first and reports what was removed,
// in clearing order.
func (t *Tables) ClearAll() []TableCount {
	cleared := make([]TableCount, 0, 6)

	items := 0
	for _, o := range t.orders {
		items += len(o.Items)
		o.Items = nil
	}
	cleared = append(cleared, TableCount{Table: TableOrderItems, Rows: items})

	cleared = append(cleared, TableCount{Table: TableOrders, Rows: len(t.orders)})
	t.orders = make(map[string]*Order)

	cleared = append(cleared, TableCount{Table: TableInventory, Rows: len(t.inventory)})
	t.inventory = make(map[listingKey]*InventoryRecord)

	cleared = append(cleared, TableCount{Table: TableListings, Rows: len(t.listings)})
	t.listings = make(map[listingKey]*Listing)

	cleared = append(cleared, TableCount{Table: TableProductTypes, Rows: len(t.productTypes)})
	t.productTypes = make(map[string]*ProductTypeDef)

	cleared = append(cleared, TableCount{Table: TableSellers, Rows: len(t.sellers)})
	t.sellers = make(map[string]*Seller)

	return cleared
}

// Counts returns the row count of every logical table.
func (t *Tables) Counts() map[string]int {
	items := 0
	for _, o := range t.orders {
		items += len(o.Items)
	}
	return map[string]int{
		TableSellers:      len(t.sellers),
		TableProductTypes: len(t.productTypes),
		TableListings:     len(t.listings),
		TableInventory:    len(t.inventory),
		TableOrders:       len(t.orders),
		TableOrderItems:   items,
	}
}

// sortedListings returns all listing rows ordered by (sellerId, sku).
// Rows are not copied; callers clone before handing them out.
func (t *Tables) sortedListings() []*Listing {
	out := make([]*Listing, 0, len(t.listings))
	for _, l := range t.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SellerID != out[j].SellerID {
			return out[i].SellerID < out[j].SellerID
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}
