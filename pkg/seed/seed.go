package seed

import (
	"fmt"
	"time"

	"github.com/marketd/marketd/pkg/market"
)

// Step names, in replay order.
const (
	StepSellers      = "seed_sellers"
	StepProductTypes = "seed_product_types"
	StepListings     = "seed_listings"
	StepInventory    = "seed_inventory"
	StepOrders       = "seed_orders"
)

// Step is one replayable unit of the seed sequence. Apply inserts rows into
// the schema it is handed and reports how many landed. Steps run with the
// owning store's write lock already held, so they never lock themselves.
type Step struct {
	Name  string
	Apply func(t *market.Tables) (int, error)
}

// Steps returns the full seed sequence, parents before children.
func Steps() []Step {
	return []Step{
		{Name: StepSellers, Apply: applySellers},
		{Name: StepProductTypes, Apply: applyProductTypes},
		{Name: StepListings, Apply: applyListings},
		{Name: StepInventory, Apply: applyInventory},
		{Name: StepOrders, Apply: applyOrders},
	}
}

func applySellers(t *market.Tables) (int, error) {
	n := 0
	for _, s := range sellerRows() {
		if err := t.InsertSeller(s); err != nil {
			return n, fmt.Errorf("seller %s: %w", s.SellerID, err)
		}
		n++
	}
	return n, nil
}

func applyProductTypes(t *market.Tables) (int, error) {
	n := 0
	for _, pt := range productTypeRows() {
		if err := t.InsertProductType(pt); err != nil {
			return n, fmt.Errorf("product type %s: %w", pt.Name, err)
		}
		n++
	}
	return n, nil
}

func applyListings(t *market.Tables) (int, error) {
	n := 0
	for i, row := range listingRows() {
		ts := Epoch.Add(time.Duration(i) * time.Minute)
		ids := make([]any, len(row.marketplaces))
		for j, id := range row.marketplaces {
			ids[j] = id
		}
		l := &market.Listing{
			SellerID:    row.sellerID,
			SKU:         row.sku,
			ProductType: row.productType,
			Status:      market.StatusActive,
			Attributes: map[string]any{
				market.AttrTitle:          row.title,
				market.AttrDescription:    row.description,
				market.AttrPrice:          row.price,
				market.AttrQuantity:       row.quantity,
				market.AttrMarketplaceIDs: ids,
			},
			CreatedAt:     ts,
			LastUpdatedAt: ts,
		}
		if err := t.InsertListing(l); err != nil {
			return n, fmt.Errorf("listing %s/%s: %w", row.sellerID, row.sku, err)
		}
		n++
	}
	return n, nil
}

func applyInventory(t *market.Tables) (int, error) {
	n := 0
	for i, row := range listingRows() {
		rec := &market.InventoryRecord{
			SellerID:            row.sellerID,
			SKU:                 row.sku,
			FNSKU:               fmt.Sprintf("X%08d", i+1),
			FulfillableQuantity: row.quantity,
			InboundQuantity:     (i % 4) * 5,
			LastUpdatedAt:       Epoch.Add(time.Duration(i) * time.Minute),
		}
		if err := t.InsertInventory(rec); err != nil {
			return n, fmt.Errorf("inventory %s/%s: %w", row.sellerID, row.sku, err)
		}
		n++
	}
	return n, nil
}

func applyOrders(t *market.Tables) (int, error) {
	n := 0
	for _, o := range orderRows() {
		if err := t.InsertOrder(o); err != nil {
			return n, fmt.Errorf("order %s: %w", o.OrderID, err)
		}
		n++
	}
	return n, nil
}
