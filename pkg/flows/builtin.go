package flows

import (
	"fmt"

	"github.com/marketd/marketd/pkg/seed"
)

// Builtin returns a registry holding the ten stock flows. They cover every
// flow kind and are written against the seeded dataset, so their
// expectations hold on a freshly reset store once the instructed action
// was performed.
func Builtin() *Registry {
	r := NewRegistry()
	for _, f := range builtinFlows() {
		if err := r.Add(f); err != nil {
			panic(fmt.Sprintf("flows: bad builtin flow: %v", err))
		}
	}
	return r
}

func builtinFlows() []*Flow {
	return []*Flow{
		{
			ID:          "flow_1_create_laptop",
			Name:        "Create New Laptop Listing",
			Description: "Create a new laptop listing for SELLER001",
			Instruction: "Create a new laptop listing for SELLER001 with SKU 'TEST-LAPTOP-001', title 'Test Gaming Laptop', description 'High-performance gaming laptop for testing', price $999.99, quantity 50, status ACTIVE, and marketplace_ids ['ATVPDKIKX0DER']",
			Kind:        KindCreate,
			Target:      &Target{SellerID: "SELLER001", SKU: "TEST-LAPTOP-001"},
			// Only the four core fields are checked, so a minimal create
			// that follows the instruction's essentials still passes.
			Expect: map[string]any{
				"title":    "Test Gaming Laptop",
				"price":    999.99,
				"quantity": 50,
				"status":   "ACTIVE",
			},
			Tolerance: 0.01,
		},
		{
			ID:          "flow_2_update_laptop_price",
			Name:        "Update Laptop Price and Quantity",
			Description: "Update existing laptop listing price and quantity",
			Instruction: "Update SELLER001's LAPTOP-001 listing to change the price to $1199.99 and reduce quantity to 20",
			Kind:        KindUpdate,
			Target:      &Target{SellerID: "SELLER001", SKU: "LAPTOP-001"},
			Expect: map[string]any{
				"price":    1199.99,
				"quantity": 20,
			},
			Tolerance: 0.01,
		},
		{
			ID:          "flow_3_delete_cable",
			Name:        "Delete Cable Listing",
			Description: "Delete (set to INACTIVE) a cable listing",
			Instruction: "Delete SELLER003's CABLE-001 listing (set status to INACTIVE)",
			Kind:        KindDelete,
			Target:      &Target{SellerID: "SELLER003", SKU: "CABLE-001"},
		},
		{
			ID:          "flow_4_search_bookwise",
			Name:        "Search BookWise Listings",
			Description: "Find all active listings from SELLER002 (BookWise Publishing)",
			Instruction: "Search for all active listings from SELLER002 (BookWise Publishing)",
			Kind:        KindSearch,
			Search: &SearchSpec{
				SellerID: "SELLER002",
				Status:   "ACTIVE",
				CountMin: 8,
				EachRule: `sellerName == "BookWise Publishing" && status == "ACTIVE"`,
			},
		},
		{
			ID:          "flow_5_search_gaming",
			Name:        "Search Gaming Products",
			Description: "Search for products with 'gaming' in title or description",
			Instruction: "Search for all products that have 'gaming' in the title or description",
			Kind:        KindSearch,
			Search: &SearchSpec{
				Keywords: []string{"gaming"},
				CountMin: 3,
				EachRule: `title matches "(?i)gaming" || description matches "(?i)gaming"`,
			},
		},
		{
			ID:          "flow_6_price_range_search",
			Name:        "Search Price Range $20-$50",
			Description: "Find listings priced between $20-$50",
			Instruction: "Find all listings with prices between $20 and $50",
			Kind:        KindSearch,
			Search: &SearchSpec{
				PriceMin: floatPtr(20),
				PriceMax: floatPtr(50),
				CountMin: 5,
				EachRule: `price >= 20.0 && price <= 50.0`,
			},
		},
		{
			ID:          "flow_7_deactivate_fitness",
			Name:        "Deactivate Fitness Products",
			Description: "Set all SELLER005's fitness products to INACTIVE",
			Instruction: "Set all listings from SELLER005 (FitLife Sports) to INACTIVE status",
			Kind:        KindSearch,
			Search: &SearchSpec{
				SellerID:   "SELLER005",
				CountExact: intPtr(5),
				EachRule:   `status == "INACTIVE"`,
			},
		},
		{
			ID:          "flow_8_add_canada_kitchen",
			Name:        "Add Canada Marketplace to Kitchen Products",
			Description: "Add Canada marketplace to all SELLER006 kitchen products",
			Instruction: "Update all listings from SELLER006 (KitchenPro Essentials) to include the Canada marketplace (A2EUQ1WTGCTBG2) in their marketplace_ids",
			Kind:        KindSearch,
			Search: &SearchSpec{
				SellerID:   "SELLER006",
				CountExact: intPtr(5),
				EachRule:   fmt.Sprintf("%q in marketplaceIds", seed.MarketplaceCanada),
			},
		},
		{
			ID:          "flow_9_most_expensive_per_seller",
			Name:        "Find Most Expensive Product Per Seller",
			Description: "Find the highest priced product from each seller",
			Instruction: "Find the most expensive (highest priced) product from each seller",
			Kind:        KindAggregate,
			Aggregate: &AggregateSpec{
				GroupBy: GroupBySeller,
				Metric:  MetricMaxPrice,
				Top: []TopEntry{
					{SellerID: "SELLER001", SKU: "LAPTOP-001", Price: 1299.99},
					{SellerID: "SELLER002", SKU: "TABLET-002", Price: 299.99},
					{SellerID: "SELLER003", SKU: "EARBUDS-001", Price: 79.99},
					{SellerID: "SELLER004", SKU: "MIRROR-001", Price: 89.99},
					{SellerID: "SELLER005", SKU: "WEIGHTS-001", Price: 199.99},
					{SellerID: "SELLER006", SKU: "BLENDER-001", Price: 149.99},
					{SellerID: "SELLER007", SKU: "WATCH-001", Price: 199.99},
					{SellerID: "SELLER008", SKU: "COVER-001", Price: 79.99},
				},
			},
			Tolerance: 0.01,
		},
		{
			ID:          "flow_10_bulk_inventory_reduction",
			Name:        "Reduce Electronics Inventory",
			Description: "Reduce all SELLER001 electronics quantities by 10",
			Instruction: "Reduce the quantity of all SELLER001 (TechGear Electronics) products by 10 units each",
			Kind:        KindSearch,
			Search: &SearchSpec{
				SellerID:   "SELLER001",
				CountExact: intPtr(12),
				EachRule:   `quantity == seedQuantity - 10.0`,
			},
		},
	}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
