package flows

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/marketd/marketd/pkg/logging"
	"github.com/marketd/marketd/pkg/market"
	"github.com/marketd/marketd/pkg/seed"
)

// Validator checks flows against a live store. It is safe for concurrent
// use; compiled rule programs are cached across validations.
type Validator struct {
	registry *Registry
	log      *slog.Logger

	programMu    sync.RWMutex
	programCache map[string]*vm.Program
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the validator's logger.
func WithLogger(log *slog.Logger) Option {
	return func(v *Validator) {
		v.log = logging.Component(log, "flows")
	}
}

// NewValidator returns a validator over the given registry.
func NewValidator(reg *Registry, opts ...Option) *Validator {
	v := &Validator{
		registry:     reg,
		log:          logging.Nop(),
		programCache: make(map[string]*vm.Program),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry returns the validator's flow registry.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// Validate checks a single flow against the store. Unknown flow ids are a
// not-found error; a flow whose expectations don't hold is a FAIL result,
// not an error.
func (v *Validator) Validate(store *market.Store, flowID string) (*Result, error) {
	flow, ok := v.registry.Get(flowID)
	if !ok {
		return nil, &market.NotFoundError{Resource: "flows", ID: flowID}
	}
	res, err := v.validateFlow(store, flow)
	if err != nil {
		return nil, err
	}
	v.log.Debug("flow validated", "flow_id", flow.ID, "status", res.Status)
	return res, nil
}

// ValidateAll checks every registered flow in order and summarizes the
// verdicts.
func (v *Validator) ValidateAll(store *market.Store) (*Summary, error) {
	results := make([]Result, 0, v.registry.Len())
	for _, flow := range v.registry.List() {
		res, err := v.validateFlow(store, flow)
		if err != nil {
			return nil, fmt.Errorf("flow %s: %w", flow.ID, err)
		}
		results = append(results, *res)
	}
	s := summarize(results)
	v.log.Debug("all flows validated", "total", s.Total, "passed", s.Passed, "failed", s.Failed)
	return s, nil
}

func (v *Validator) validateFlow(store *market.Store, flow *Flow) (*Result, error) {
	res := &Result{FlowID: flow.ID, Name: flow.Name}
	var err error
	switch flow.Kind {
	case KindCreate, KindUpdate:
		err = v.checkTarget(store, flow, res)
	case KindDelete:
		err = v.checkDelete(store, flow, res)
	case KindSearch:
		err = v.checkSearch(store, flow, res)
	case KindAggregate:
		err = v.checkAggregate(store, flow, res)
	default:
		err = &market.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown flow kind '%s'", flow.Kind)}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkTarget validates create and update flows: the target listing must
// exist and carry every expected field value.
func (v *Validator) checkTarget(store *market.Store, flow *Flow, res *Result) error {
	listing, err := store.GetListing(flow.Target.SellerID, flow.Target.SKU)
	if err != nil {
		var nf *market.NotFoundError
		if !errors.As(err, &nf) {
			return err
		}
		msg := fmt.Sprintf("listing %s not found", flow.Target)
		if flow.Kind == KindCreate {
			msg = fmt.Sprintf("listing %s was not created", flow.Target)
		}
		res.fail(msg, FieldCheck{Field: "listing", Expected: flow.Target.String(), Actual: nil})
		return nil
	}

	for _, field := range sortedFields(flow.Expect) {
		expected := flow.Expect[field]
		actual := fieldValue(listing, field)
		res.Checks = append(res.Checks, FieldCheck{
			Field:    field,
			Expected: expected,
			Actual:   actual,
			Passed:   valuesMatch(expected, actual, flow.Tolerance),
		})
	}

	if flow.Kind == KindCreate {
		res.finish("listing created successfully", "listing created but some fields don't match")
	} else {
		res.finish("listing updated successfully", "listing update validation failed")
	}
	return nil
}

// checkDelete validates delete flows: the listing must still exist and sit
// at the expected status, INACTIVE by default.
func (v *Validator) checkDelete(store *market.Store, flow *Flow, res *Result) error {
	expectedStatus := string(market.StatusInactive)
	if s, ok := flow.Expect["status"].(string); ok && s != "" {
		expectedStatus = s
	}

	listing, err := store.GetListing(flow.Target.SellerID, flow.Target.SKU)
	if err != nil {
		var nf *market.NotFoundError
		if !errors.As(err, &nf) {
			return err
		}
		res.fail(fmt.Sprintf("listing %s not found", flow.Target),
			FieldCheck{Field: "status", Expected: expectedStatus, Actual: nil})
		return nil
	}

	actual := string(listing.Status)
	res.Checks = append(res.Checks, FieldCheck{
		Field:    "status",
		Expected: expectedStatus,
		Actual:   actual,
		Passed:   actual == expectedStatus,
	})
	res.finish("listing deactivated successfully",
		fmt.Sprintf("listing status is %s, expected %s", actual, expectedStatus))
	return nil
}

// checkSearch validates search flows: run the scan, check the match count,
// and require every matched listing to satisfy the rule.
func (v *Validator) checkSearch(store *market.Store, flow *Flow, res *Result) error {
	spec := flow.Search
	items, err := v.collect(store, spec)
	if err != nil {
		return err
	}
	n := len(items)

	if spec.CountExact != nil {
		res.Checks = append(res.Checks, FieldCheck{
			Field:    "count",
			Expected: *spec.CountExact,
			Actual:   n,
			Passed:   n == *spec.CountExact,
		})
	} else if spec.CountMin > 0 {
		res.Checks = append(res.Checks, FieldCheck{
			Field:    "count",
			Expected: fmt.Sprintf(">= %d", spec.CountMin),
			Actual:   n,
			Passed:   n >= spec.CountMin,
		})
	}

	if spec.EachRule != "" {
		matched := 0
		for _, l := range items {
			ok, err := v.evalRule(spec.EachRule, l)
			if err != nil {
				return err
			}
			if ok {
				matched++
			}
		}
		res.Checks = append(res.Checks, FieldCheck{
			Field:    "listings",
			Expected: spec.EachRule,
			Actual:   fmt.Sprintf("%d/%d listings satisfy the rule", matched, n),
			Passed:   matched == n,
		})
	}

	msg := fmt.Sprintf("search matched %d listings", n)
	res.finish(msg, msg)
	return nil
}

// checkAggregate validates aggregate flows by recomputing the grouped
// metric over all listings and comparing each group's winner.
func (v *Validator) checkAggregate(store *market.Store, flow *Flow, res *Result) error {
	type best struct {
		sku   string
		price float64
	}
	bests := make(map[string]best)
	for _, l := range store.AllListings() {
		price, ok := l.AttrNumber(market.AttrPrice)
		if !ok {
			continue
		}
		if cur, seen := bests[l.SellerID]; !seen || price > cur.price {
			bests[l.SellerID] = best{sku: l.SKU, price: price}
		}
	}

	for _, want := range flow.Aggregate.Top {
		expected := fmt.Sprintf("%s @ %.2f", want.SKU, want.Price)
		got, ok := bests[want.SellerID]
		if !ok {
			res.Checks = append(res.Checks, FieldCheck{
				Field:    want.SellerID,
				Expected: expected,
				Actual:   nil,
			})
			continue
		}
		res.Checks = append(res.Checks, FieldCheck{
			Field:    want.SellerID,
			Expected: expected,
			Actual:   fmt.Sprintf("%s @ %.2f", got.sku, got.price),
			Passed:   got.sku == want.SKU && numericWithin(got.price, want.Price, flow.Tolerance),
		})
	}

	msg := fmt.Sprintf("analysis completed across %d sellers", len(flow.Aggregate.Top))
	res.finish(msg, msg)
	return nil
}

// collect runs the flow's search through the search engine, walking pages
// until the result set is complete. Sorting by sku keeps the walk
// deterministic.
func (v *Validator) collect(store *market.Store, spec *SearchSpec) ([]*market.Listing, error) {
	q := market.SearchQuery{
		SellerID:  spec.SellerID,
		Status:    market.Status(spec.Status),
		Keywords:  append([]string(nil), spec.Keywords...),
		PriceMin:  spec.PriceMin,
		PriceMax:  spec.PriceMax,
		SortBy:    market.SortBySKU,
		SortOrder: market.OrderAsc,
		PageSize:  market.MaxPageSize,
	}
	var items []*market.Listing
	for {
		page, err := store.SearchListings(q)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if page.NextPageToken == "" {
			return items, nil
		}
		q.PageToken = page.NextPageToken
	}
}

// ===== Rule evaluation =====

// ruleEnv builds the expression environment for one listing. The shape is
// fixed: every listing yields the same keys with the same types, so rule
// programs compile once and run against any row. seedPrice and
// seedQuantity carry the listing's seeded baseline (zero when the row was
// not part of the seed dataset), which lets rules assert relative changes.
func ruleEnv(l *market.Listing) map[string]interface{} {
	title, _ := l.AttrString(market.AttrTitle)
	description, _ := l.AttrString(market.AttrDescription)
	price, _ := l.AttrNumber(market.AttrPrice)
	quantity, _ := l.AttrNumber(market.AttrQuantity)
	base, seeded := seed.BaselineFor(l.SellerID, l.SKU)

	return map[string]interface{}{
		"sellerId":       l.SellerID,
		"sellerName":     l.SellerName,
		"sku":            l.SKU,
		"productType":    l.ProductType,
		"status":         string(l.Status),
		"title":          title,
		"description":    description,
		"price":          price,
		"quantity":       quantity,
		"marketplaceIds": l.MarketplaceIDs(),
		"seeded":         seeded,
		"seedPrice":      base.Price,
		"seedQuantity":   float64(base.Quantity),
	}
}

// CheckRule compiles a rule without evaluating it, so malformed or
// non-boolean rules are rejected when a flow is loaded rather than when it
// is first validated.
func CheckRule(rule string) error {
	if _, err := expr.Compile(rule, expr.Env(ruleEnv(&market.Listing{})), expr.AsBool()); err != nil {
		return &market.ValidationError{Field: "eachRule", Message: fmt.Sprintf("bad rule %q: %v", rule, err)}
	}
	return nil
}

func (v *Validator) evalRule(rule string, l *market.Listing) (bool, error) {
	env := ruleEnv(l)
	program, err := v.compileRule(rule, env)
	if err != nil {
		return false, fmt.Errorf("compile %q: %w", rule, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", rule, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("rule %q returned %T, want bool", rule, out)
	}
	return ok, nil
}

// compileRule returns a cached program for the rule. The environment shape
// is fixed across listings, so the rule text alone keys the cache.
func (v *Validator) compileRule(rule string, env map[string]interface{}) (*vm.Program, error) {
	v.programMu.RLock()
	if program, ok := v.programCache[rule]; ok {
		v.programMu.RUnlock()
		return program, nil
	}
	v.programMu.RUnlock()

	program, err := expr.Compile(rule, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}

	v.programMu.Lock()
	// Double-check in case another goroutine compiled the same rule.
	if existing, ok := v.programCache[rule]; ok {
		v.programMu.Unlock()
		return existing, nil
	}
	v.programCache[rule] = program
	v.programMu.Unlock()

	return program, nil
}

// ===== Field comparison =====

// fieldValue reads a named field off a listing: envelope fields by name,
// flat attribute keys directly, and anything else as a path expression
// into the attributes bag.
func fieldValue(l *market.Listing, field string) any {
	switch field {
	case "status":
		return string(l.Status)
	case "sellerId":
		return l.SellerID
	case "sellerName":
		return l.SellerName
	case "sku":
		return l.SKU
	case "productType":
		return l.ProductType
	}
	if v, ok := l.Attr(field); ok {
		return v
	}
	return extract(l.Attributes, field)
}

// valuesMatch compares an expected value against a live one. Numbers
// compare within tolerance, string lists compare as sets, everything else
// compares exactly.
func valuesMatch(expected, actual any, tolerance float64) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if e, ok := asFloat(expected); ok {
		a, ok := asFloat(actual)
		return ok && numericWithin(a, e, tolerance)
	}

	if e, ok := asStringSlice(expected); ok {
		a, ok := asStringSlice(actual)
		return ok && stringSetsEqual(e, a)
	}

	return reflect.DeepEqual(expected, actual)
}

func numericWithin(a, b, tolerance float64) bool {
	if tolerance <= 0 {
		return a == b
	}
	return math.Abs(a-b) <= tolerance
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

func stringSetsEqual(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for s := range setA {
		if _, ok := setB[s]; !ok {
			return false
		}
	}
	return true
}

func sortedFields(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
