package seed

import (
	"fmt"
	"time"

	"github.com/marketd/marketd/pkg/market"
)

// Epoch anchors every seeded timestamp. Rows are offset from it by their
// position, so a freshly seeded store always carries the same clock values
// and search ordering is reproducible across resets.
var Epoch = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

// Marketplace ids used by the seed data.
const (
	MarketplaceUS     = "ATVPDKIKX0DER"
	MarketplaceCanada = "A2EUQ1WTGCTBG2"
	MarketplaceMexico = "A1AM78C64UM0Y8"
)

func sellerRows() []*market.Seller {
	names := []struct {
		id   string
		name string
	}{
		{"SELLER001", "TechGear Electronics"},
		{"SELLER002", "BookWise Publishing"},
		{"SELLER003", "MobileMax Accessories"},
		{"SELLER004", "HomeStyle Living"},
		{"SELLER005", "FitLife Sports"},
		{"SELLER006", "KitchenPro Essentials"},
		{"SELLER007", "StyleHub Fashion"},
		{"SELLER008", "AutoCare Solutions"},
	}
	sellers := make([]*market.Seller, len(names))
	for i, n := range names {
		sellers[i] = &market.Seller{
			SellerID:      n.id,
			Name:          n.name,
			MarketplaceID: MarketplaceUS,
			CountryCode:   "US",
			CurrencyCode:  "USD",
			CreatedAt:     Epoch,
			UpdatedAt:     Epoch,
		}
	}
	return sellers
}

func productTypeRows() []*market.ProductTypeDef {
	attrSchema := func() map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "minLength": 1},
				"description": map[string]any{"type": "string"},
				"price":       map[string]any{"type": "number", "minimum": 0},
				"quantity":    map[string]any{"type": "integer", "minimum": 0},
				"marketplaceIds": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		}
	}
	types := []struct {
		name string
		desc string
	}{
		{"ELECTRONICS", "Computers, peripherals, and consumer electronics"},
		{"MEDIA", "Books, ebooks, and educational material"},
		{"MOBILE_ACCESSORY", "Cases, chargers, cables, and phone add-ons"},
		{"HOME", "Home and garden products"},
		{"SPORTS", "Sports and fitness equipment"},
		{"KITCHEN", "Kitchen and dining products"},
		{"FASHION", "Apparel and fashion accessories"},
		{"AUTOMOTIVE", "Car care and automotive accessories"},
	}
	defs := make([]*market.ProductTypeDef, 0, len(types)+1)
	for _, pt := range types {
		defs = append(defs, &market.ProductTypeDef{
			Name:        pt.name,
			Description: pt.desc,
			Required:    []string{"title", "price", "quantity"},
			Schema:      attrSchema(),
		})
	}
	// Catch-all type with no attribute contract, for generic submissions.
	defs = append(defs, &market.ProductTypeDef{
		Name:        "PRODUCT",
		Description: "General product without an attribute contract",
	})
	return defs
}

type listingRow struct {
	sellerID     string
	sku          string
	productType  string
	title        string
	description  string
	price        float64
	quantity     int
	marketplaces []string
}

func listingRows() []listingRow {
	us := []string{MarketplaceUS}
	usCA := []string{MarketplaceUS, MarketplaceCanada}
	usMX := []string{MarketplaceUS, MarketplaceMexico}
	return []listingRow{
		// Electronics - Computers & Accessories (SELLER001 - TechGear Electronics)
		{"SELLER001", "LAPTOP-001", "ELECTRONICS", "High Performance Gaming Laptop", "Powerful gaming laptop with RTX graphics and fast processor", 1299.99, 25, usCA},
		{"SELLER001", "LAPTOP-002", "ELECTRONICS", "Business Ultrabook 14-inch", "Lightweight business laptop with long battery life", 899.99, 40, us},
		{"SELLER001", "LAPTOP-003", "ELECTRONICS", "Budget Student Laptop", "Affordable laptop perfect for students and basic tasks", 449.99, 60, usMX},
		{"SELLER001", "MOUSE-001", "ELECTRONICS", "Wireless Gaming Mouse", "Ergonomic wireless mouse with RGB lighting", 79.99, 150, us},
		{"SELLER001", "MOUSE-002", "ELECTRONICS", "Bluetooth Office Mouse", "Silent click wireless mouse for office use", 29.99, 200, usCA},
		{"SELLER001", "KEYBOARD-001", "ELECTRONICS", "Mechanical Gaming Keyboard", "RGB backlit mechanical keyboard with blue switches", 129.99, 75, usMX},
		{"SELLER001", "KEYBOARD-002", "ELECTRONICS", "Wireless Compact Keyboard", "Slim wireless keyboard with numeric keypad", 59.99, 90, us},
		{"SELLER001", "MONITOR-001", "ELECTRONICS", "27-inch 4K Gaming Monitor", "Ultra HD gaming monitor with 144Hz refresh rate", 399.99, 30, us},
		{"SELLER001", "MONITOR-002", "ELECTRONICS", "24-inch Office Monitor", "Full HD monitor perfect for office work", 179.99, 45, usCA},
		{"SELLER001", "HEADSET-001", "ELECTRONICS", "Gaming Headset with Microphone", "Professional gaming headset with noise-canceling microphone", 89.99, 60, us},
		{"SELLER001", "WEBCAM-001", "ELECTRONICS", "1080p HD Webcam", "High definition webcam for video calls and streaming", 69.99, 80, us},
		{"SELLER001", "SPEAKER-001", "ELECTRONICS", "Bluetooth Desktop Speakers", "Compact wireless speakers with rich sound", 49.99, 100, usCA},

		// Books & Education (SELLER002 - BookWise Publishing)
		{"SELLER002", "BOOK-001", "MEDIA", "Python Programming Guide", "Complete guide to Python programming for beginners", 29.99, 200, us},
		{"SELLER002", "BOOK-002", "MEDIA", "Web Development with FastAPI", "Learn modern web development using FastAPI framework", 39.99, 100, usCA},
		{"SELLER002", "BOOK-003", "MEDIA", "Machine Learning Fundamentals", "Introduction to machine learning concepts and algorithms", 49.99, 150, us},
		{"SELLER002", "BOOK-004", "MEDIA", "Data Science with Python", "Comprehensive guide to data science using Python", 44.99, 120, usMX},
		{"SELLER002", "BOOK-005", "MEDIA", "JavaScript: The Complete Guide", "Master JavaScript from basics to advanced concepts", 34.99, 180, us},
		{"SELLER002", "TABLET-001", "ELECTRONICS", "Drawing Tablet for Artists", "Professional drawing tablet with pressure-sensitive stylus", 199.99, 30, usMX},
		{"SELLER002", "TABLET-002", "ELECTRONICS", "10-inch Android Tablet", "High-performance Android tablet for entertainment and work", 299.99, 50, us},
		{"SELLER002", "EBOOK-001", "MEDIA", "Digital Marketing Mastery", "Complete digital marketing course and strategies", 19.99, 500, usCA},

		// Mobile & Electronics (SELLER003 - MobileMax Accessories)
		{"SELLER003", "PHONE-001", "MOBILE_ACCESSORY", "Smartphone Case - Clear", "Transparent protective case for smartphones", 19.99, 500, us},
		{"SELLER003", "PHONE-002", "MOBILE_ACCESSORY", "Wireless Charger Pad", "Fast wireless charging pad compatible with all Qi devices", 49.99, 80, usCA},
		{"SELLER003", "PHONE-003", "MOBILE_ACCESSORY", "Phone Stand Adjustable", "Adjustable phone stand for desk and bedside use", 15.99, 300, us},
		{"SELLER003", "CABLE-001", "MOBILE_ACCESSORY", "USB-C to USB-A Cable", "High-speed data transfer cable, 6 feet length", 12.99, 1000, us},
		{"SELLER003", "CABLE-002", "MOBILE_ACCESSORY", "Lightning to USB Cable", "MFi certified lightning cable for Apple devices", 24.99, 400, usCA},
		{"SELLER003", "POWERBANK-001", "MOBILE_ACCESSORY", "10000mAh Portable Power Bank", "High capacity power bank with fast charging", 39.99, 150, us},
		{"SELLER003", "EARBUDS-001", "MOBILE_ACCESSORY", "Wireless Bluetooth Earbuds", "True wireless earbuds with charging case", 79.99, 120, usMX},

		// Home & Garden (SELLER004 - HomeStyle Living)
		{"SELLER004", "LAMP-001", "HOME", "LED Desk Lamp with USB Charging", "Adjustable LED desk lamp with built-in USB ports", 45.99, 80, us},
		{"SELLER004", "PLANT-001", "HOME", "Indoor Plant Pot Set", "Set of 3 ceramic plant pots with drainage", 29.99, 100, usCA},
		{"SELLER004", "ORGANIZER-001", "HOME", "Desk Organizer with Drawers", "Wooden desk organizer with multiple compartments", 34.99, 60, us},
		{"SELLER004", "CUSHION-001", "HOME", "Memory Foam Seat Cushion", "Ergonomic memory foam cushion for office chairs", 39.99, 90, us},
		{"SELLER004", "MIRROR-001", "HOME", "LED Vanity Mirror", "Hollywood style LED vanity mirror with dimmer", 89.99, 40, usCA},

		// Sports & Fitness (SELLER005 - FitLife Sports)
		{"SELLER005", "YOGA-001", "SPORTS", "Premium Yoga Mat", "Non-slip yoga mat with carrying strap", 29.99, 150, us},
		{"SELLER005", "WEIGHTS-001", "SPORTS", "Adjustable Dumbbell Set", "Space-saving adjustable dumbbells 5-50 lbs", 199.99, 25, us},
		{"SELLER005", "BOTTLE-001", "SPORTS", "Insulated Water Bottle", "Stainless steel water bottle keeps drinks cold 24hrs", 24.99, 200, usCA},
		{"SELLER005", "BAND-001", "SPORTS", "Resistance Band Set", "Set of 5 resistance bands with door anchor", 19.99, 180, us},
		{"SELLER005", "TRACKER-001", "SPORTS", "Fitness Activity Tracker", "Waterproof fitness tracker with heart rate monitor", 79.99, 70, usMX},

		// Kitchen & Dining (SELLER006 - KitchenPro Essentials)
		{"SELLER006", "BLENDER-001", "KITCHEN", "High-Speed Blender", "Professional grade blender for smoothies and soups", 149.99, 35, us},
		{"SELLER006", "KNIFE-001", "KITCHEN", "Chef Knife Set", "Professional 8-piece chef knife set with block", 89.99, 50, usCA},
		{"SELLER006", "COFFEE-001", "KITCHEN", "French Press Coffee Maker", "Borosilicate glass French press, 34oz capacity", 34.99, 80, us},
		{"SELLER006", "SCALE-001", "KITCHEN", "Digital Kitchen Scale", "Precision digital scale for cooking and baking", 25.99, 120, us},
		{"SELLER006", "CONTAINER-001", "KITCHEN", "Glass Food Storage Set", "Set of 10 glass containers with airtight lids", 49.99, 90, usCA},

		// Fashion & Accessories (SELLER007 - StyleHub Fashion)
		{"SELLER007", "WATCH-001", "FASHION", "Smartwatch with GPS", "Fitness smartwatch with GPS and heart rate monitoring", 199.99, 45, us},
		{"SELLER007", "WALLET-001", "FASHION", "RFID Blocking Wallet", "Slim leather wallet with RFID protection", 39.99, 100, usCA},
		{"SELLER007", "SUNGLASSES-001", "FASHION", "Polarized Sunglasses", "UV protection polarized sunglasses with case", 49.99, 80, us},
		{"SELLER007", "BAG-001", "FASHION", "Laptop Backpack", "Water-resistant laptop backpack with USB charging port", 59.99, 70, usMX},
		{"SELLER007", "BELT-001", "FASHION", "Leather Belt Set", "Reversible leather belt black and brown", 29.99, 150, us},

		// Automotive (SELLER008 - AutoCare Solutions)
		{"SELLER008", "MOUNT-001", "AUTOMOTIVE", "Car Phone Mount", "Magnetic car phone mount for dashboard", 19.99, 200, us},
		{"SELLER008", "CHARGER-001", "AUTOMOTIVE", "Car USB Charger", "Dual USB car charger with fast charging", 14.99, 300, usCA},
		{"SELLER008", "ORGANIZER-002", "AUTOMOTIVE", "Car Trunk Organizer", "Collapsible car trunk organizer with compartments", 34.99, 80, us},
		{"SELLER008", "COVER-001", "AUTOMOTIVE", "Car Seat Covers Set", "Universal fit car seat covers, waterproof", 79.99, 40, us},
		{"SELLER008", "VACUUM-001", "AUTOMOTIVE", "Car Vacuum Cleaner", "Portable car vacuum with multiple attachments", 49.99, 60, usMX},
	}
}

func orderRows() []*market.Order {
	item := func(orderID string, seq int, sku, title string, qty int, price float64) market.OrderItem {
		return market.OrderItem{
			OrderItemID:     fmt.Sprintf("%s-%02d", orderID, seq),
			SKU:             sku,
			Title:           title,
			QuantityOrdered: qty,
			ItemPrice:       price,
		}
	}
	orders := []*market.Order{
		{
			OrderID: "114-3941689-8772232", SellerID: "SELLER001", Status: "Shipped",
			PurchaseDate: Epoch.Add(24 * time.Hour), OrderTotal: 1459.97, Currency: "USD",
			Items: []market.OrderItem{
				item("114-3941689-8772232", 1, "LAPTOP-001", "High Performance Gaming Laptop", 1, 1299.99),
				item("114-3941689-8772232", 2, "MOUSE-001", "Wireless Gaming Mouse", 2, 79.99),
			},
		},
		{
			OrderID: "113-7280418-4911048", SellerID: "SELLER002", Status: "Shipped",
			PurchaseDate: Epoch.Add(26 * time.Hour), OrderTotal: 124.96, Currency: "USD",
			Items: []market.OrderItem{
				item("113-7280418-4911048", 1, "BOOK-001", "Python Programming Guide", 3, 29.99),
				item("113-7280418-4911048", 2, "BOOK-005", "JavaScript: The Complete Guide", 1, 34.99),
			},
		},
		{
			OrderID: "112-5389011-7511464", SellerID: "SELLER003", Status: "Pending",
			PurchaseDate: Epoch.Add(30 * time.Hour), OrderTotal: 79.99, Currency: "USD",
			Items: []market.OrderItem{
				item("112-5389011-7511464", 1, "EARBUDS-001", "Wireless Bluetooth Earbuds", 1, 79.99),
			},
		},
		{
			OrderID: "111-2633910-5557820", SellerID: "SELLER005", Status: "Shipped",
			PurchaseDate: Epoch.Add(31 * time.Hour), OrderTotal: 84.97, Currency: "USD",
			Items: []market.OrderItem{
				item("111-2633910-5557820", 1, "YOGA-001", "Premium Yoga Mat", 2, 29.99),
				item("111-2633910-5557820", 2, "BOTTLE-001", "Insulated Water Bottle", 1, 24.99),
			},
		},
		{
			OrderID: "113-0750320-1002243", SellerID: "SELLER006", Status: "Delivered",
			PurchaseDate: Epoch.Add(40 * time.Hour), OrderTotal: 149.99, Currency: "USD",
			Items: []market.OrderItem{
				item("113-0750320-1002243", 1, "BLENDER-001", "High-Speed Blender", 1, 149.99),
			},
		},
		{
			OrderID: "114-8086411-3300856", SellerID: "SELLER008", Status: "Pending",
			PurchaseDate: Epoch.Add(47 * time.Hour), OrderTotal: 54.97, Currency: "USD",
			Items: []market.OrderItem{
				item("114-8086411-3300856", 1, "MOUNT-001", "Car Phone Mount", 2, 19.99),
				item("114-8086411-3300856", 2, "CHARGER-001", "Car USB Charger", 1, 14.99),
			},
		},
	}
	return orders
}

// Baseline is the seeded price and quantity of one listing. Validation flows
// that assert relative changes (inventory reductions, price deltas) compare
// live rows against these values.
type Baseline struct {
	Price    float64
	Quantity int
}

var baselines = buildBaselines()

func buildBaselines() map[string]Baseline {
	m := make(map[string]Baseline)
	for _, row := range listingRows() {
		m[row.sellerID+"/"+row.sku] = Baseline{Price: row.price, Quantity: row.quantity}
	}
	return m
}

// BaselineFor returns the seeded baseline for (sellerID, sku).
func BaselineFor(sellerID, sku string) (Baseline, bool) {
	b, ok := baselines[sellerID+"/"+sku]
	return b, ok
}
