package market

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortField selects the primary search sort key.
type SortField string

// Sort fields accepted by search.
const (
	SortByLastUpdated SortField = "lastUpdatedDate"
	SortByCreated     SortField = "createdDate"
	SortBySKU         SortField = "sku"
)

// SortOrder is the direction of the primary sort key.
type SortOrder string

// Sort orders accepted by search.
const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// Page size bounds. A request outside the bounds is rejected, not clamped.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// SearchQuery is a conjunctive listing search: every populated filter must
// match. Keywords are the one OR clause: a listing matches when any keyword
// appears, case-insensitively, in its title or description.
type SearchQuery struct {
	SellerID      string
	MarketplaceID string
	Keywords      []string
	PriceMin      *float64
	PriceMax      *float64
	Status        Status
	SortBy        SortField
	SortOrder     SortOrder
	PageSize      int
	PageToken     string
}

// SearchResult is one page of matches. NumberOfResults counts every match,
// not just this page; NextPageToken is empty on the last page.
type SearchResult struct {
	Items           []*Listing `json:"items"`
	NumberOfResults int        `json:"numberOfResults"`
	NextPageToken   string     `json:"nextPageToken,omitempty"`
}

// SearchListings filters, orders, and paginates the listings table. The
// ordering is total: the primary key is SortBy in SortOrder direction, ties
// broken by (sellerId, sku) ascending, so equal sort keys still page
// deterministically.
func (s *Store) SearchListings(q SearchQuery) (*SearchResult, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}

	var cur *pageCursor
	if q.PageToken != "" {
		c, err := decodeCursor(q.PageToken)
		if err != nil {
			return nil, err
		}
		if c.SortBy != q.SortBy || c.SortOrder != q.SortOrder {
			return nil, &ValidationError{Field: "pageToken", Message: "token was issued for a different sort"}
		}
		cur = c
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Listing, 0, len(s.tables.listings))
	for _, l := range s.tables.listings {
		if q.matches(l) {
			matched = append(matched, l)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return lessListings(matched[i], matched[j], q.SortBy, q.SortOrder)
	})

	// Resume strictly after the cursor position. Comparing positions rather
	// than looking up the cursor row keeps pagination stable when the row
	// was replaced or deactivated between pages.
	start := 0
	if cur != nil {
		for start < len(matched) && !cur.before(matched[start], q.SortBy, q.SortOrder) {
			start++
		}
	}

	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	result := &SearchResult{
		Items:           make([]*Listing, 0, end-start),
		NumberOfResults: len(matched),
	}
	for _, l := range matched[start:end] {
		result.Items = append(result.Items, l.Clone())
	}
	if end < len(matched) {
		result.NextPageToken = encodeCursor(newCursor(matched[end-1], q.SortBy, q.SortOrder))
	}
	return result, nil
}

// normalize applies defaults and validates enumerated fields in place.
func (q *SearchQuery) normalize() error {
	switch q.SortBy {
	case "":
		q.SortBy = SortByLastUpdated
	case SortByLastUpdated, SortByCreated, SortBySKU:
	default:
		return &ValidationError{Field: "sortBy", Message: fmt.Sprintf("unknown sort field '%s'", q.SortBy)}
	}

	switch SortOrder(strings.ToUpper(string(q.SortOrder))) {
	case "":
		q.SortOrder = OrderDesc
	case OrderAsc:
		q.SortOrder = OrderAsc
	case OrderDesc:
		q.SortOrder = OrderDesc
	default:
		return &ValidationError{Field: "sortOrder", Message: fmt.Sprintf("unknown sort order '%s'", q.SortOrder)}
	}

	if q.Status != "" && !q.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status '%s'", q.Status)}
	}

	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return &ValidationError{Field: "pageSize", Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
	}

	keywords := q.Keywords[:0]
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	q.Keywords = keywords
	return nil
}

// matches reports whether l satisfies every populated filter.
func (q *SearchQuery) matches(l *Listing) bool {
	if q.SellerID != "" && l.SellerID != q.SellerID {
		return false
	}
	if q.Status != "" && l.Status != q.Status {
		return false
	}
	if q.MarketplaceID != "" {
		found := false
		for _, id := range l.MarketplaceIDs() {
			if id == q.MarketplaceID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.PriceMin != nil || q.PriceMax != nil {
		p, ok := l.AttrNumber(AttrPrice)
		if !ok {
			return false
		}
		if q.PriceMin != nil && p < *q.PriceMin {
			return false
		}
		if q.PriceMax != nil && p > *q.PriceMax {
			return false
		}
	}
	if len(q.Keywords) > 0 {
		title, _ := l.AttrString(AttrTitle)
		desc, _ := l.AttrString(AttrDescription)
		title = strings.ToLower(title)
		desc = strings.ToLower(desc)
		found := false
		for _, kw := range q.Keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(title, kw) || strings.Contains(desc, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// lessListings orders a before b: primary key per field and order, then
// (sellerId, sku) ascending regardless of direction.
func lessListings(a, b *Listing, field SortField, order SortOrder) bool {
	cmp := comparePrimary(a, b, field)
	if cmp != 0 {
		if order == OrderDesc {
			return cmp > 0
		}
		return cmp < 0
	}
	if a.SellerID != b.SellerID {
		return a.SellerID < b.SellerID
	}
	return a.SKU < b.SKU
}

func comparePrimary(a, b *Listing, field SortField) int {
	switch field {
	case SortBySKU:
		return strings.Compare(a.SKU, b.SKU)
	case SortByCreated:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return a.LastUpdatedAt.Compare(b.LastUpdatedAt)
	}
}

// pageCursor is the decoded form of a page token: the position of the last
// emitted item under a specific sort.
type pageCursor struct {
	SortBy    SortField `json:"sortBy"`
	SortOrder SortOrder `json:"sortOrder"`
	SortKey   string    `json:"sortKey"`
	SellerID  string    `json:"sellerId"`
	SKU       string    `json:"sku"`

	sortTime time.Time
}

func newCursor(l *Listing, field SortField, order SortOrder) *pageCursor {
	c := &pageCursor{SortBy: field, SortOrder: order, SellerID: l.SellerID, SKU: l.SKU}
	switch field {
	case SortBySKU:
		c.SortKey = l.SKU
	case SortByCreated:
		c.SortKey = l.CreatedAt.Format(time.RFC3339Nano)
	default:
		c.SortKey = l.LastUpdatedAt.Format(time.RFC3339Nano)
	}
	return c
}

// before reports whether the cursor position orders strictly before l, i.e.
// l belongs on a later page.
func (c *pageCursor) before(l *Listing, field SortField, order SortOrder) bool {
	var cmp int
	switch field {
	case SortBySKU:
		cmp = strings.Compare(c.SortKey, l.SKU)
	case SortByCreated:
		cmp = c.sortTime.Compare(l.CreatedAt)
	default:
		cmp = c.sortTime.Compare(l.LastUpdatedAt)
	}
	if cmp != 0 {
		if order == OrderDesc {
			return cmp > 0
		}
		return cmp < 0
	}
	if c.SellerID != l.SellerID {
		return c.SellerID < l.SellerID
	}
	return c.SKU < l.SKU
}

func encodeCursor(c *pageCursor) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(token string) (*pageCursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, &ValidationError{Field: "pageToken", Message: "not a valid page token"}
	}
	var c pageCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &ValidationError{Field: "pageToken", Message: "not a valid page token"}
	}
	if c.SortBy != SortBySKU {
		c.sortTime, err = time.Parse(time.RFC3339Nano, c.SortKey)
		if err != nil {
			return nil, &ValidationError{Field: "pageToken", Message: "not a valid page token"}
		}
	}
	return &c, nil
}
