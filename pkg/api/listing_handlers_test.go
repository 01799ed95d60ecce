package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketd/marketd/pkg/market"
)

const itemsPath = "/listings/2021-08-01/items"

func TestGetListing(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"/SELLER001/LAPTOP-001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var l market.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, "SELLER001", l.SellerID)
	assert.Equal(t, "TechGear Electronics", l.SellerName)
	assert.Equal(t, "LAPTOP-001", l.SKU)
	assert.Equal(t, market.StatusActive, l.Status)
	assert.Equal(t, "High Performance Gaming Laptop", l.Attributes["title"])
	assert.Equal(t, 1299.99, l.Attributes["price"])
}

func TestGetListing_NotFound(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"/SELLER001/NOPE-001", sid, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp market.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, market.CodeNotFound, resp.Code)
	assert.Equal(t, market.TableListings, resp.Resource)
	assert.Equal(t, "SELLER001/NOPE-001", resp.ID)
}

func TestPutListing_Create(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	body := `{"productType":"ELECTRONICS","attributes":{"title":"USB Hub","price":34.99,"quantity":80}}`
	rec := do(t, srv, http.MethodPut, itemsPath+"/SELLER001/HUB-001", sid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sub SubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "HUB-001", sub.SKU)
	assert.Equal(t, "ACCEPTED", sub.Status)
	assert.NotEmpty(t, sub.SubmissionID)
	assert.NotNil(t, sub.Issues)

	rec = do(t, srv, http.MethodGet, itemsPath+"/SELLER001/HUB-001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var l market.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, market.StatusActive, l.Status)
	assert.Equal(t, "USB Hub", l.Attributes["title"])
}

func TestPutListing_ReplaceIsFull(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"/SELLER001/LAPTOP-001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var before market.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	require.Contains(t, before.Attributes, "description")

	body := `{"productType":"ELECTRONICS","attributes":{"title":"Bare Relisting","price":599.99,"quantity":5}}`
	rec = do(t, srv, http.MethodPut, itemsPath+"/SELLER001/LAPTOP-001", sid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, itemsPath+"/SELLER001/LAPTOP-001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var after market.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))

	assert.Equal(t, "Bare Relisting", after.Attributes["title"])
	assert.NotContains(t, after.Attributes, "description")
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt), "replace must keep creation time")
}

func TestPutListing_UnknownSeller(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	body := `{"productType":"ELECTRONICS","attributes":{"title":"Orphan","price":1,"quantity":1}}`
	rec := do(t, srv, http.MethodPut, itemsPath+"/SELLER999/ORPHAN-001", sid, body)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp market.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, market.TableSellers, resp.Resource)
}

func TestPutListing_MissingProductType(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodPut, itemsPath+"/SELLER001/NOPT-001", sid, `{"attributes":{"title":"x"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp market.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, market.CodeValidation, resp.Code)
	assert.Equal(t, "productType", resp.Field)
}

func TestPutListing_UncataloguedProductTypeWarns(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	body := `{"productType":"GADGET","attributes":{"title":"Thing","price":9.99,"quantity":3}}`
	rec := do(t, srv, http.MethodPut, itemsPath+"/SELLER001/THING-001", sid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sub SubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	require.NotEmpty(t, sub.Issues)
	assert.Equal(t, market.SeverityWarning, sub.Issues[0].Severity)
}

func TestCreateListing_Conflict(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	body := `{"productType":"ELECTRONICS","attributes":{"title":"Dup","price":1,"quantity":1}}`
	rec := do(t, srv, http.MethodPost, itemsPath+"/SELLER001/LAPTOP-001", sid, body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp market.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, market.CodeConflict, resp.Code)
	assert.Contains(t, resp.Hint, "PUT")

	// A fresh sku goes through.
	rec = do(t, srv, http.MethodPost, itemsPath+"/SELLER001/FRESH-001", sid, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestPatchListing(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	body := `{"patches":[{"op":"replace","path":"price","value":899.99},{"op":"add","path":"color","value":"black"}]}`
	rec := do(t, srv, http.MethodPatch, itemsPath+"/SELLER001/LAPTOP-001", sid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sub SubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "ACCEPTED", sub.Status)

	rec = do(t, srv, http.MethodGet, itemsPath+"/SELLER001/LAPTOP-001", sid, "")
	var l market.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, 899.99, l.Attributes["price"])
	assert.Equal(t, "black", l.Attributes["color"])
}

func TestPatchListing_Status(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	body := `{"patches":[{"op":"replace","path":"status","value":"INACTIVE"}]}`
	rec := do(t, srv, http.MethodPatch, itemsPath+"/SELLER001/LAPTOP-001", sid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, itemsPath+"/SELLER001/LAPTOP-001", sid, "")
	var l market.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, market.StatusInactive, l.Status)
}

func TestPatchListing_UnresolvedPath(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	body := `{"patches":[{"op":"remove","path":"nonexistent"}]}`
	rec := do(t, srv, http.MethodPatch, itemsPath+"/SELLER001/LAPTOP-001", sid, body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp market.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, market.CodeInvalidPatch, resp.Code)
}

func TestPatchListing_EmptyPatches(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodPatch, itemsPath+"/SELLER001/LAPTOP-001", sid, `{"patches":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp market.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "patches", resp.Field)
}

func TestDeleteListing_Deactivates(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodDelete, itemsPath+"/SELLER003/CABLE-001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sub SubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "ACCEPTED", sub.Status)

	// The row survives as INACTIVE.
	rec = do(t, srv, http.MethodGet, itemsPath+"/SELLER003/CABLE-001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var l market.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, market.StatusInactive, l.Status)

	// Deleting again acknowledges without complaint.
	rec = do(t, srv, http.MethodDelete, itemsPath+"/SELLER003/CABLE-001", sid, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchListings_PaginatesBySeller(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"?sellerId=SELLER001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 12, page.NumberOfResults)
	assert.Len(t, page.Items, 10) // default page size
	require.NotNil(t, page.Pagination)
	require.NotEmpty(t, page.Pagination.NextToken)

	rec = do(t, srv, http.MethodGet, itemsPath+"?sellerId=SELLER001&pageToken="+page.Pagination.NextToken, sid, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rest SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rest))
	assert.Equal(t, 12, rest.NumberOfResults)
	assert.Len(t, rest.Items, 2)
	assert.Nil(t, rest.Pagination)
}

func TestSearchListings_Keywords(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"?keywords=laptop&sellerId=SELLER001", sid, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.NotZero(t, page.NumberOfResults)

	skus := make([]string, 0, len(page.Items))
	for _, l := range page.Items {
		skus = append(skus, l.SKU)
	}
	assert.Contains(t, skus, "LAPTOP-001")
}

func TestSearchListings_SortBySKU(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"?sellerId=SELLER002&sortBy=sku&sortOrder=ASC&pageSize=50", sid, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.NotEmpty(t, page.Items)
	assert.True(t, sort.SliceIsSorted(page.Items, func(i, j int) bool {
		return page.Items[i].SKU < page.Items[j].SKU
	}))
}

func TestSearchListings_PriceWindow(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"?priceMin=20&priceMax=50&pageSize=50", sid, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.NotEmpty(t, page.Items)
	for _, l := range page.Items {
		price, ok := l.AttrNumber("price")
		require.True(t, ok, "listing %s has no price", l.SKU)
		assert.GreaterOrEqual(t, price, 20.0)
		assert.LessOrEqual(t, price, 50.0)
	}
}

func TestSearchListings_BadParams(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"page size zero", "?pageSize=0", "pageSize"},
		{"page size over max", "?pageSize=51", "pageSize"},
		{"page size not a number", "?pageSize=ten", "pageSize"},
		{"bad price min", "?priceMin=cheap", "priceMin"},
		{"bad price max", "?priceMax=expensive", "priceMax"},
		{"unknown sort field", "?sortBy=price", "sortBy"},
		{"unknown sort order", "?sortOrder=sideways", "sortOrder"},
		{"unknown status", "?status=PENDING", "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, itemsPath+tt.query, sid, "")
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp market.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, market.CodeValidation, resp.Code)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}

func TestSearchListings_BadPageToken(t *testing.T) {
	srv := newTestServer(t)
	sid := newSession(t, srv)

	rec := do(t, srv, http.MethodGet, itemsPath+"?pageToken=garbage", sid, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp market.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, market.CodeValidation, resp.Code)
}
