package market

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Store is one session's isolated marketplace state. All exported methods
// are safe for concurrent use; reads return deep copies so callers never
// alias store internals.
type Store struct {
	mu     sync.RWMutex
	tables *Tables
}

// NewStore returns an empty store. Seeding is the reseed engine's job.
func NewStore() *Store {
	return &Store{tables: NewTables()}
}

// Exclusive runs fn while holding the store's write lock. The reseed engine
// uses it so clear plus replay is one unit of work: no reader ever observes
// a cleared-but-not-reseeded store.
func (s *Store) Exclusive(fn func(t *Tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tables)
}

// ListingSubmission is the body of a create or replace request.
type ListingSubmission struct {
	ProductType string         `json:"productType"`
	Attributes  map[string]any `json:"attributes"`
}

// PutListing creates or fully replaces the listing at (sellerID, sku). On
// replace nothing of the previous record survives except its identity and
// creation time. The referenced seller must exist. Returned issues are
// advisory product-type findings; they never fail the write.
func (s *Store) PutListing(sellerID, sku string, sub ListingSubmission) (*Listing, []Issue, error) {
	l, issues, err := s.upsertListing(sellerID, sku, sub, true)
	return l, issues, err
}

// CreateListing is PutListing without the replace half: it fails with a
// ConflictError when (sellerID, sku) already exists.
func (s *Store) CreateListing(sellerID, sku string, sub ListingSubmission) (*Listing, []Issue, error) {
	return s.upsertListing(sellerID, sku, sub, false)
}

func (s *Store) upsertListing(sellerID, sku string, sub ListingSubmission, replace bool) (*Listing, []Issue, error) {
	if sellerID == "" {
		return nil, nil, &ValidationError{Field: "sellerId", Message: "must not be empty"}
	}
	if sku == "" {
		return nil, nil, &ValidationError{Field: "sku", Message: "must not be empty"}
	}
	if sub.ProductType == "" {
		return nil, nil, &ValidationError{Field: "productType", Message: "must not be empty"}
	}

	attrs, err := normalizeAttributes(sub.Attributes)
	if err != nil {
		return nil, nil, &ValidationError{Field: "attributes", Message: err.Error()}
	}

	// The status lives on the envelope, not in the bag. Lift it out when the
	// submission carries it; default newly written listings to ACTIVE.
	status := StatusActive
	if raw, ok := attrs["status"]; ok {
		str, ok := raw.(string)
		if !ok || !Status(str).Valid() {
			return nil, nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status '%v'", raw)}
		}
		status = Status(str)
		delete(attrs, "status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seller, ok := s.tables.sellers[sellerID]
	if !ok {
		return nil, nil, &NotFoundError{Resource: TableSellers, ID: sellerID}
	}

	key := listingKey{sellerID, sku}
	existing := s.tables.listings[key]
	if existing != nil && !replace {
		return nil, nil, &ConflictError{Resource: TableListings, ID: key.String()}
	}

	now := time.Now().UTC()
	l := &Listing{
		SellerID:      sellerID,
		SellerName:    seller.Name,
		SKU:           sku,
		ProductType:   sub.ProductType,
		Attributes:    attrs,
		Status:        status,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	if existing != nil {
		l.CreatedAt = existing.CreatedAt
	}

	issues := s.checkProductType(sub.ProductType, attrs)
	s.tables.listings[key] = l
	return l.Clone(), issues, nil
}

// checkProductType returns advisory issues for attrs under the named product
// type. Caller holds at least a read lock.
func (s *Store) checkProductType(name string, attrs map[string]any) []Issue {
	pt, ok := s.tables.productTypes[name]
	if !ok {
		return []Issue{{
			Code:     IssueUnknownProductType,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("product type '%s' is not in the catalog", name),
		}}
	}
	return pt.CheckAttributes(attrs)
}

// GetListing returns the listing at (sellerID, sku).
func (s *Store) GetListing(sellerID, sku string) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.tables.listings[listingKey{sellerID, sku}]
	if !ok {
		return nil, &NotFoundError{Resource: TableListings, ID: listingKey{sellerID, sku}.String()}
	}
	return l.Clone(), nil
}

// DeactivateListing marks the listing INACTIVE. The row is kept; searching
// for INACTIVE status still finds it. Deactivating an inactive listing is a
// no-op that returns the current record.
func (s *Store) DeactivateListing(sellerID, sku string) (*Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listingKey{sellerID, sku}
	l, ok := s.tables.listings[key]
	if !ok {
		return nil, &NotFoundError{Resource: TableListings, ID: key.String()}
	}
	if l.Status != StatusInactive {
		l.Status = StatusInactive
		l.LastUpdatedAt = time.Now().UTC()
	}
	return l.Clone(), nil
}

// AllListings returns a copy of every listing row ordered by (sellerId, sku).
func (s *Store) AllListings() []*Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tables.sortedListings()
	out := make([]*Listing, len(rows))
	for i, l := range rows {
		out[i] = l.Clone()
	}
	return out
}

// Seller returns the seller row for id.
func (s *Store) Seller(id string) (*Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel, ok := s.tables.sellers[id]
	if !ok {
		return nil, &NotFoundError{Resource: TableSellers, ID: id}
	}
	c := *sel
	return &c, nil
}

// Sellers returns all seller rows ordered by id.
func (s *Store) Sellers() []*Seller {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Seller, 0, len(s.tables.sellers))
	for _, sel := range s.tables.sellers {
		c := *sel
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SellerID < out[j].SellerID })
	return out
}

// Counts returns per-table row counts.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables.Counts()
}

// PriceStats summarizes listing prices.
type PriceStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// SellerListings is one seller's share of the listings table.
type SellerListings struct {
	SellerID   string `json:"sellerId"`
	SellerName string `json:"sellerName"`
	Count      int    `json:"count"`
}

// StoreStats is the aggregate view served by the state endpoint.
type StoreStats struct {
	TotalListings    int              `json:"totalListings"`
	ActiveListings   int              `json:"activeListings"`
	InactiveListings int              `json:"inactiveListings"`
	SellerCounts     []SellerListings `json:"sellerCounts"`
	Prices           PriceStats       `json:"priceStats"`
	TotalInventory   float64          `json:"totalInventory"`
}

// Stats aggregates the listings table: status split, per-seller counts,
// price spread, and summed quantities.
func (s *Store) Stats() *StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &StoreStats{}
	bySeller := make(map[string]*SellerListings)
	var priceSum float64
	priced := 0

	for _, l := range s.tables.listings {
		stats.TotalListings++
		if l.Status == StatusActive {
			stats.ActiveListings++
		} else {
			stats.InactiveListings++
		}

		sc, ok := bySeller[l.SellerID]
		if !ok {
			sc = &SellerListings{SellerID: l.SellerID, SellerName: l.SellerName}
			bySeller[l.SellerID] = sc
		}
		sc.Count++

		if p, ok := l.AttrNumber(AttrPrice); ok {
			if priced == 0 || p < stats.Prices.Min {
				stats.Prices.Min = p
			}
			if p > stats.Prices.Max {
				stats.Prices.Max = p
			}
			priceSum += p
			priced++
		}
		if q, ok := l.AttrNumber(AttrQuantity); ok {
			stats.TotalInventory += q
		}
	}

	if priced > 0 {
		stats.Prices.Avg = math.Round(priceSum/float64(priced)*100) / 100
	}

	stats.SellerCounts = make([]SellerListings, 0, len(bySeller))
	for _, sc := range bySeller {
		stats.SellerCounts = append(stats.SellerCounts, *sc)
	}
	sort.Slice(stats.SellerCounts, func(i, j int) bool {
		return stats.SellerCounts[i].SellerID < stats.SellerCounts[j].SellerID
	})
	return stats
}
