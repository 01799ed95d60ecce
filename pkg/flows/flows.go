package flows

import (
	"fmt"

	"github.com/marketd/marketd/pkg/market"
)

// Kind identifies what a flow verifies after the instructed action ran.
type Kind string

// Flow kinds.
const (
	// KindCreate checks that a listing now exists with the expected fields.
	KindCreate Kind = "create"
	// KindUpdate checks expected field values on an existing listing.
	KindUpdate Kind = "update"
	// KindDelete checks that a listing was moved to its expected status,
	// INACTIVE unless the flow says otherwise.
	KindDelete Kind = "delete"
	// KindSearch runs a listing search and checks the result count plus an
	// optional per-row rule.
	KindSearch Kind = "search"
	// KindAggregate groups the whole listing table and checks the winner of
	// each group.
	KindAggregate Kind = "aggregate"
)

// Valid reports whether k is a known flow kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCreate, KindUpdate, KindDelete, KindSearch, KindAggregate:
		return true
	}
	return false
}

// Target names the listing a create, update, or delete flow inspects.
type Target struct {
	SellerID string `json:"sellerId" yaml:"sellerId"`
	SKU      string `json:"sku" yaml:"sku"`
}

func (t Target) String() string {
	return t.SellerID + "/" + t.SKU
}

// SearchSpec describes the scan a search flow performs and what the
// result set must satisfy. The filter fields mirror the search query;
// CountExact takes precedence over CountMin when set. EachRule is an
// expression every matched listing must satisfy (see ruleEnv for the
// variables in scope).
type SearchSpec struct {
	SellerID string   `json:"sellerId,omitempty" yaml:"sellerId,omitempty"`
	Status   string   `json:"status,omitempty" yaml:"status,omitempty"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	PriceMin *float64 `json:"priceMin,omitempty" yaml:"priceMin,omitempty"`
	PriceMax *float64 `json:"priceMax,omitempty" yaml:"priceMax,omitempty"`

	CountMin   int    `json:"countMin,omitempty" yaml:"countMin,omitempty"`
	CountExact *int   `json:"countExact,omitempty" yaml:"countExact,omitempty"`
	EachRule   string `json:"eachRule,omitempty" yaml:"eachRule,omitempty"`
}

// AggregateSpec describes a grouped computation over all listings and the
// expected winner per group. Only grouping by seller with a max-price
// metric is supported.
type AggregateSpec struct {
	GroupBy string     `json:"groupBy" yaml:"groupBy"`
	Metric  string     `json:"metric" yaml:"metric"`
	Top     []TopEntry `json:"top" yaml:"top"`
}

// Supported aggregate dimensions.
const (
	GroupBySeller  = "sellerId"
	MetricMaxPrice = "maxPrice"
)

// TopEntry is the expected winning listing for one group.
type TopEntry struct {
	SellerID string  `json:"sellerId" yaml:"sellerId"`
	SKU      string  `json:"sku" yaml:"sku"`
	Price    float64 `json:"price" yaml:"price"`
}

// Flow is one scripted agent task: the instruction an agent is given and
// the checks that decide whether the task was carried out.
//
// Exactly one of Target+Expect, Search, or Aggregate is used, selected by
// Kind. Expect keys name envelope fields (status, sellerId, sku,
// sellerName, productType) or address the attributes bag; dotted keys
// like "specs.cpu" reach nested attributes. Tolerance widens numeric
// comparisons to |expected-actual| <= Tolerance; zero means exact.
type Flow struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Instruction string         `json:"instruction" yaml:"instruction"`
	Kind        Kind           `json:"kind" yaml:"kind"`
	Target      *Target        `json:"target,omitempty" yaml:"target,omitempty"`
	Expect      map[string]any `json:"expect,omitempty" yaml:"expect,omitempty"`
	Search      *SearchSpec    `json:"search,omitempty" yaml:"search,omitempty"`
	Aggregate   *AggregateSpec `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Tolerance   float64        `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// Validate checks the flow definition for structural problems. It does not
// compile EachRule; the loader does that separately so broken rules are
// caught at load time.
func (f *Flow) Validate() error {
	if f.ID == "" {
		return &market.ValidationError{Field: "id", Message: "flow id is required"}
	}
	if f.Name == "" {
		return &market.ValidationError{Field: "name", Message: fmt.Sprintf("flow '%s' has no name", f.ID)}
	}
	if !f.Kind.Valid() {
		return &market.ValidationError{Field: "kind", Message: fmt.Sprintf("flow '%s' has unknown kind '%s'", f.ID, f.Kind)}
	}

	switch f.Kind {
	case KindCreate, KindUpdate:
		if f.Target == nil || f.Target.SellerID == "" || f.Target.SKU == "" {
			return &market.ValidationError{Field: "target", Message: fmt.Sprintf("flow '%s' needs a target sellerId and sku", f.ID)}
		}
		if len(f.Expect) == 0 {
			return &market.ValidationError{Field: "expect", Message: fmt.Sprintf("flow '%s' has no expected fields", f.ID)}
		}
		for key := range f.Expect {
			if _, err := parsePath(key); err != nil {
				return &market.ValidationError{Field: "expect", Message: fmt.Sprintf("flow '%s': bad field path '%s': %v", f.ID, key, err)}
			}
		}
	case KindDelete:
		// Expect may be empty; validation defaults the status to INACTIVE.
		if f.Target == nil || f.Target.SellerID == "" || f.Target.SKU == "" {
			return &market.ValidationError{Field: "target", Message: fmt.Sprintf("flow '%s' needs a target sellerId and sku", f.ID)}
		}
	case KindSearch:
		if f.Search == nil {
			return &market.ValidationError{Field: "search", Message: fmt.Sprintf("flow '%s' has no search spec", f.ID)}
		}
		if f.Search.CountExact == nil && f.Search.CountMin == 0 && f.Search.EachRule == "" {
			return &market.ValidationError{Field: "search", Message: fmt.Sprintf("flow '%s' checks nothing: set countMin, countExact, or eachRule", f.ID)}
		}
	case KindAggregate:
		if f.Aggregate == nil || len(f.Aggregate.Top) == 0 {
			return &market.ValidationError{Field: "aggregate", Message: fmt.Sprintf("flow '%s' has no aggregate expectations", f.ID)}
		}
		if f.Aggregate.GroupBy != GroupBySeller {
			return &market.ValidationError{Field: "aggregate", Message: fmt.Sprintf("flow '%s': unsupported groupBy '%s'", f.ID, f.Aggregate.GroupBy)}
		}
		if f.Aggregate.Metric != MetricMaxPrice {
			return &market.ValidationError{Field: "aggregate", Message: fmt.Sprintf("flow '%s': unsupported metric '%s'", f.ID, f.Aggregate.Metric)}
		}
	}
	if f.Tolerance < 0 {
		return &market.ValidationError{Field: "tolerance", Message: fmt.Sprintf("flow '%s' has a negative tolerance", f.ID)}
	}
	return nil
}

// Registry holds flows in a stable order. Build it at startup; it is safe
// for concurrent reads but not for concurrent mutation.
type Registry struct {
	order []string
	flows map[string]*Flow
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]*Flow)}
}

// Add validates f and appends it to the registry. Duplicate ids are
// rejected.
func (r *Registry) Add(f *Flow) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if _, exists := r.flows[f.ID]; exists {
		return &market.ConflictError{Resource: "flows", ID: f.ID}
	}
	r.order = append(r.order, f.ID)
	r.flows[f.ID] = f
	return nil
}

// Get returns the flow with the given id.
func (r *Registry) Get(id string) (*Flow, bool) {
	f, ok := r.flows[id]
	return f, ok
}

// List returns all flows in registration order.
func (r *Registry) List() []*Flow {
	out := make([]*Flow, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.flows[id])
	}
	return out
}

// Len returns the number of registered flows.
func (r *Registry) Len() int {
	return len(r.order)
}
