package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/marketd/marketd/pkg/market"
)

// handleGetListing returns the full listing record.
// GET /listings/2021-08-01/items/{sellerId}/{sku}
func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request, store *market.Store) {
	l, err := store.GetListing(r.PathValue("sellerId"), r.PathValue("sku"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handlePutListing creates or fully replaces a listing. A replace keeps
// only the identity and creation time of the old record.
// PUT /listings/2021-08-01/items/{sellerId}/{sku}
func (s *Server) handlePutListing(w http.ResponseWriter, r *http.Request, store *market.Store) {
	var sub market.ListingSubmission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, err)
		return
	}
	l, issues, err := store.PutListing(r.PathValue("sellerId"), r.PathValue("sku"), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubmissionResponse(l.SKU, issues))
}

// handleCreateListing is the create-only variant: it conflicts instead of
// replacing when the (sellerId, sku) pair already exists.
// POST /listings/2021-08-01/items/{sellerId}/{sku}
func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request, store *market.Store) {
	var sub market.ListingSubmission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, err)
		return
	}
	l, issues, err := store.CreateListing(r.PathValue("sellerId"), r.PathValue("sku"), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSubmissionResponse(l.SKU, issues))
}

// handlePatchListing applies path-addressed patch operations atomically.
// PATCH /listings/2021-08-01/items/{sellerId}/{sku}
func (s *Server) handlePatchListing(w http.ResponseWriter, r *http.Request, store *market.Store) {
	var req PatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := store.PatchListing(r.PathValue("sellerId"), r.PathValue("sku"), req.Patches)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubmissionResponse(l.SKU, nil))
}

// handleDeleteListing deactivates a listing. The row survives as INACTIVE
// and deleting twice acknowledges both times.
// DELETE /listings/2021-08-01/items/{sellerId}/{sku}
func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request, store *market.Store) {
	l, err := store.DeactivateListing(r.PathValue("sellerId"), r.PathValue("sku"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubmissionResponse(l.SKU, nil))
}

// handleSearchListings filters, sorts, and paginates the listings table.
// GET /listings/2021-08-01/items
func (s *Server) handleSearchListings(w http.ResponseWriter, r *http.Request, store *market.Store) {
	q, err := parseSearchQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := store.SearchListings(q)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := SearchResponse{
		NumberOfResults: res.NumberOfResults,
		Items:           res.Items,
	}
	if res.NextPageToken != "" {
		resp.Pagination = &Pagination{NextToken: res.NextPageToken}
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseSearchQuery maps the query string onto a store search. Enumerated
// values pass through raw; the store validates them and names the bad
// field. Only the numeric parameters are checked here, where the string
// form still exists.
func parseSearchQuery(r *http.Request) (market.SearchQuery, error) {
	qs := r.URL.Query()
	q := market.SearchQuery{
		SellerID:  qs.Get("sellerId"),
		Status:    market.Status(qs.Get("status")),
		SortBy:    market.SortField(qs.Get("sortBy")),
		SortOrder: market.SortOrder(qs.Get("sortOrder")),
		PageToken: qs.Get("pageToken"),
	}

	// marketplaceIds is a comma list in SP-API; the store matches one id
	// against each listing's marketplace set.
	if raw := qs.Get("marketplaceIds"); raw != "" {
		q.MarketplaceID = strings.TrimSpace(strings.Split(raw, ",")[0])
	}
	if raw := qs.Get("keywords"); raw != "" {
		q.Keywords = strings.Split(raw, ",")
	}

	var err error
	if q.PriceMin, err = parsePrice(qs.Get("priceMin"), "priceMin"); err != nil {
		return q, err
	}
	if q.PriceMax, err = parsePrice(qs.Get("priceMax"), "priceMax"); err != nil {
		return q, err
	}

	// The store treats a zero page size as unset, so an explicit 0 has to
	// be rejected here, while the raw parameter still distinguishes the
	// two.
	if raw := qs.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, &market.ValidationError{Field: "pageSize", Message: fmt.Sprintf("'%s' is not an integer", raw)}
		}
		if n < 1 || n > market.MaxPageSize {
			return q, &market.ValidationError{Field: "pageSize", Message: fmt.Sprintf("must be between 1 and %d", market.MaxPageSize)}
		}
		q.PageSize = n
	}
	return q, nil
}

func parsePrice(raw, field string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &market.ValidationError{Field: field, Message: fmt.Sprintf("'%s' is not a number", raw)}
	}
	return &f, nil
}
