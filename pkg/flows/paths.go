package flows

import (
	"sync"

	"github.com/ohler55/ojg/jp"
)

// Parsed expect-key expressions, cached because validations re-check the
// same handful of paths on every run.
var (
	pathMu    sync.RWMutex
	pathCache = make(map[string]jp.Expr)
)

// parsePath compiles an expect key into a path expression. Flat keys
// ("price") address top-level attributes; dotted or bracketed keys
// ("specs.cpu", "marketplaceIds[0]") reach into nested values.
func parsePath(path string) (jp.Expr, error) {
	pathMu.RLock()
	x, ok := pathCache[path]
	pathMu.RUnlock()
	if ok {
		return x, nil
	}

	x, err := jp.ParseString(path)
	if err != nil {
		return nil, err
	}

	pathMu.Lock()
	pathCache[path] = x
	pathMu.Unlock()
	return x, nil
}

// extract reads the first value at path inside an attributes bag, or nil
// when the path resolves to nothing.
func extract(attrs map[string]any, path string) any {
	x, err := parsePath(path)
	if err != nil {
		return nil
	}
	got := x.Get(attrs)
	if len(got) == 0 {
		return nil
	}
	return got[0]
}
