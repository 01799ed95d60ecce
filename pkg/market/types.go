package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a listing.
type Status string

// Listing statuses. Deletion is a transition to INACTIVE, never a removal.
const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is a known listing status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Well-known attribute keys. The attributes bag is open, but these keys are
// what search, seeding, and the validation flows read.
const (
	AttrTitle          = "title"
	AttrDescription    = "description"
	AttrPrice          = "price"
	AttrQuantity       = "quantity"
	AttrMarketplaceIDs = "marketplaceIds"
)

// Listing is the central entity: one offer of a product by one seller.
// Identity is the (SellerID, SKU) pair and is immutable once created.
// Attributes is an open bag holding only JSON value types (string, float64,
// bool, nil, []any, map[string]any) — writes normalize the bag through a
// JSON round-trip so path addressing and comparisons stay uniform.
type Listing struct {
	SellerID      string         `json:"sellerId"`
	SellerName    string         `json:"sellerName,omitempty"`
	SKU           string         `json:"sku"`
	ProductType   string         `json:"productType"`
	Attributes    map[string]any `json:"attributes"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	LastUpdatedAt time.Time      `json:"lastUpdatedAt"`
}

// Clone returns a deep copy of the listing. Store methods only ever return
// clones so callers cannot mutate store internals.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Attributes = deepCopyMap(l.Attributes)
	return &c
}

// Attr returns the raw attribute value for key.
func (l *Listing) Attr(key string) (any, bool) {
	v, ok := l.Attributes[key]
	return v, ok
}

// AttrString returns the attribute value for key if it is a string.
func (l *Listing) AttrString(key string) (string, bool) {
	s, ok := l.Attributes[key].(string)
	return s, ok
}

// AttrNumber returns the attribute value for key coerced to float64.
func (l *Listing) AttrNumber(key string) (float64, bool) {
	return toFloat64(l.Attributes[key])
}

// MarketplaceIDs returns the marketplace id list attribute, if present.
// Non-string entries are skipped.
func (l *Listing) MarketplaceIDs() []string {
	raw, ok := l.Attributes[AttrMarketplaceIDs].([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids
}

// listingKey is the composite map key for the listings and inventory tables.
type listingKey struct {
	sellerID string
	sku      string
}

func (k listingKey) String() string {
	return k.sellerID + "/" + k.sku
}

// Seller is a registered marketplace seller. Listings reference sellers by
// id; creating a listing for an unknown seller fails.
type Seller struct {
	SellerID      string    `json:"sellerId"`
	Name          string    `json:"name"`
	MarketplaceID string    `json:"marketplaceId"`
	CountryCode   string    `json:"countryCode"`
	CurrencyCode  string    `json:"currencyCode"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// InventoryRecord is fulfillment-side stock for one listing. Seeded from the
// listing quantities; not exposed through CRUD.
type InventoryRecord struct {
	SellerID            string    `json:"sellerId"`
	SKU                 string    `json:"sku"`
	FNSKU               string    `json:"fnsku"`
	FulfillableQuantity int       `json:"fulfillableQuantity"`
	InboundQuantity     int       `json:"inboundQuantity"`
	LastUpdatedAt       time.Time `json:"lastUpdatedAt"`
}

// Order is a seeded purchase referencing seeded listings. Orders are part
// of the fixed schema for reset and state reporting only.
type Order struct {
	OrderID      string      `json:"orderId"`
	SellerID     string      `json:"sellerId"`
	Status       string      `json:"status"`
	PurchaseDate time.Time   `json:"purchaseDate"`
	OrderTotal   float64     `json:"orderTotal"`
	Currency     string      `json:"currency"`
	Items        []OrderItem `json:"items"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	OrderItemID     string  `json:"orderItemId"`
	SKU             string  `json:"sku"`
	Title           string  `json:"title"`
	QuantityOrdered int     `json:"quantityOrdered"`
	ItemPrice       float64 `json:"itemPrice"`
}

// PatchOp is one path-addressed operation inside a patch request.
// Paths are slash- or dot-delimited token sequences into the attributes
// tree; the single token "status" addresses the listing status instead.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Patch operation kinds.
const (
	OpAdd     = "add"
	OpReplace = "replace"
	OpRemove  = "remove"
)

// Issue is an advisory finding attached to a listing submission, e.g. an
// attribute that violates the product type schema. Issues never fail the
// write.
type Issue struct {
	Code          string `json:"code"`
	Severity      string `json:"severity"`
	Message       string `json:"message"`
	AttributeName string `json:"attributeName,omitempty"`
}

// Issue severities.
const (
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// normalizeAttributes deep-copies attrs through a JSON round-trip so the
// stored bag contains only JSON value types. A nil bag becomes an empty map.
func normalizeAttributes(attrs map[string]any) (map[string]any, error) {
	if attrs == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("attributes not JSON-serializable: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("attributes round-trip failed: %w", err)
	}
	return out, nil
}

// deepCopyMap copies a JSON-typed map. Values outside the JSON type set are
// carried over as-is, which is safe for maps produced by normalizeAttributes.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return val
	}
}

// toFloat64 coerces numeric values to float64 for comparisons. JSON decoding
// produces float64; seed literals may be int.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
