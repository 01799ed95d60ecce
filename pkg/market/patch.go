package market

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PatchListing applies ops to the listing at (sellerID, sku) in order, as
// one atomic unit: if any operation cannot be applied the listing is left
// untouched and the whole patch is rejected. Malformed operations (unknown
// op kind, bad path syntax) fail with a ValidationError; well-formed
// operations that do not resolve against the current document fail with an
// InvalidPatchError.
func (s *Store) PatchListing(sellerID, sku string, ops []PatchOp) (*Listing, error) {
	if len(ops) == 0 {
		return nil, &ValidationError{Field: "patches", Message: "must contain at least one operation"}
	}

	parsed := make([][]string, len(ops))
	for i, op := range ops {
		if op.Op != OpAdd && op.Op != OpReplace && op.Op != OpRemove {
			return nil, &ValidationError{Field: "patches", Message: fmt.Sprintf("unknown op '%s'", op.Op)}
		}
		tokens, err := splitPatchPath(op.Path)
		if err != nil {
			return nil, err
		}
		parsed[i] = tokens
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := listingKey{sellerID, sku}
	l, ok := s.tables.listings[key]
	if !ok {
		return nil, &NotFoundError{Resource: TableListings, ID: key.String()}
	}

	// Work on a copy; swap in only after every op applied.
	attrs := deepCopyMap(l.Attributes)
	status := l.Status

	for i, op := range ops {
		tokens := parsed[i]

		// The bare "status" path addresses the envelope, not the bag.
		if len(tokens) == 1 && tokens[0] == "status" {
			if op.Op != OpReplace {
				return nil, &ValidationError{Field: "patches", Message: "status supports replace only"}
			}
			str, ok := op.Value.(string)
			if !ok || !Status(str).Valid() {
				return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status '%v'", op.Value)}
			}
			status = Status(str)
			continue
		}

		value := op.Value
		if op.Op != OpRemove {
			nv, err := normalizeValue(value)
			if err != nil {
				return nil, &ValidationError{Field: "patches", Message: err.Error()}
			}
			value = nv
		}

		if _, err := applyAt(attrs, tokens, op.Op, value); err != nil {
			return nil, &InvalidPatchError{Op: op.Op, Path: op.Path, Reason: err.Error()}
		}
	}

	l.Attributes = attrs
	l.Status = status
	l.LastUpdatedAt = time.Now().UTC()
	return l.Clone(), nil
}

// splitPatchPath tokenizes a patch path. Slash and dot both delimit; a
// single leading slash is tolerated. Empty paths and empty segments are
// syntax errors.
func splitPatchPath(path string) ([]string, error) {
	p := strings.TrimPrefix(path, "/")
	if p == "" {
		return nil, &ValidationError{Field: "path", Message: "must not be empty"}
	}
	tokens := strings.Split(strings.ReplaceAll(p, ".", "/"), "/")
	for _, tok := range tokens {
		if tok == "" {
			return nil, &ValidationError{Field: "path", Message: fmt.Sprintf("empty segment in '%s'", path)}
		}
	}
	return tokens, nil
}

// applyAt walks node along tokens and applies op at the final segment,
// returning the possibly replaced node. Maps mutate in place; slices are
// returned fresh on structural change, so callers reattach the result.
//
// Semantics follow JSON Patch: add sets a map key or inserts before an array
// index ("-" appends), replace and remove require the target to exist.
func applyAt(node any, tokens []string, op string, value any) (any, error) {
	tok := tokens[0]
	last := len(tokens) == 1

	switch c := node.(type) {
	case map[string]any:
		if !last {
			child, ok := c[tok]
			if !ok {
				return nil, fmt.Errorf("'%s' does not exist", tok)
			}
			nc, err := applyAt(child, tokens[1:], op, value)
			if err != nil {
				return nil, err
			}
			c[tok] = nc
			return c, nil
		}
		switch op {
		case OpAdd:
			c[tok] = value
		case OpReplace:
			if _, ok := c[tok]; !ok {
				return nil, fmt.Errorf("'%s' does not exist", tok)
			}
			c[tok] = value
		case OpRemove:
			if _, ok := c[tok]; !ok {
				return nil, fmt.Errorf("'%s' does not exist", tok)
			}
			delete(c, tok)
		}
		return c, nil

	case []any:
		if last && op == OpAdd && tok == "-" {
			return append(c, value), nil
		}
		idx, err := arrayIndex(tok, len(c), last && op == OpAdd)
		if err != nil {
			return nil, err
		}
		if !last {
			nc, err := applyAt(c[idx], tokens[1:], op, value)
			if err != nil {
				return nil, err
			}
			c[idx] = nc
			return c, nil
		}
		switch op {
		case OpAdd:
			c = append(c, nil)
			copy(c[idx+1:], c[idx:])
			c[idx] = value
		case OpReplace:
			c[idx] = value
		case OpRemove:
			c = append(c[:idx], c[idx+1:]...)
		}
		return c, nil

	default:
		return nil, fmt.Errorf("'%s' is not addressable: parent is not an object or array", tok)
	}
}

// arrayIndex parses tok as an array index. allowEnd admits index == n, the
// insert-at-end position for add.
func arrayIndex(tok string, n int, allowEnd bool) (int, error) {
	if tok == "-" {
		return 0, fmt.Errorf("'-' is only valid as the final segment of an add")
	}
	idx, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not an array index", tok)
	}
	if idx < 0 || idx > n || (idx == n && !allowEnd) {
		return 0, fmt.Errorf("index %d out of range for array of length %d", idx, n)
	}
	return idx, nil
}

// normalizeValue round-trips a patch value through JSON so stored values
// stay within the JSON type set.
func normalizeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value not JSON-serializable: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
