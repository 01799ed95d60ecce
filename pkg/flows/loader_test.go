package flows

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marketd/marketd/pkg/market"
)

func writeFlowFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFile_SingleFlow(t *testing.T) {
	dir := t.TempDir()
	path := writeFlowFile(t, dir, "floor.yaml", `
id: custom_price_floor
name: Custom Price Floor
description: No active listing may cost less than a dollar
kind: search
search:
  status: ACTIVE
  countMin: 1
  eachRule: price >= 1.0
`)

	reg := NewRegistry()
	n, err := LoadFile(reg, path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("LoadFile() = %d, want 1", n)
	}

	f, ok := reg.Get("custom_price_floor")
	if !ok {
		t.Fatal("loaded flow not registered")
	}
	if f.Kind != KindSearch || f.Search.EachRule != "price >= 1.0" {
		t.Errorf("loaded flow = %+v", f)
	}
}

func TestLoadFile_FlowList(t *testing.T) {
	dir := t.TempDir()
	path := writeFlowFile(t, dir, "suite.yaml", `
- id: suite_update
  name: Suite Update
  kind: update
  target:
    sellerId: SELLER001
    sku: LAPTOP-001
  expect:
    price: 1099.99
  tolerance: 0.01
- id: suite_delete
  name: Suite Delete
  kind: delete
  target:
    sellerId: SELLER003
    sku: CABLE-001
`)

	reg := NewRegistry()
	n, err := LoadFile(reg, path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("LoadFile() = %d, want 2", n)
	}

	upd, ok := reg.Get("suite_update")
	if !ok {
		t.Fatal("suite_update not registered")
	}
	if upd.Target.SKU != "LAPTOP-001" || upd.Tolerance != 0.01 {
		t.Errorf("suite_update = %+v", upd)
	}
	if price, ok := upd.Expect["price"].(float64); !ok || price != 1099.99 {
		t.Errorf("Expect[price] = %v", upd.Expect["price"])
	}
	if _, ok := reg.Get("suite_delete"); !ok {
		t.Error("suite_delete not registered")
	}
}

func TestLoadDir_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeFlowFile(t, dir, "a.yaml", `
id: flow_a
name: Flow A
kind: search
search:
  countMin: 1
`)
	writeFlowFile(t, dir, filepath.Join("sub", "b.yml"), `
- id: flow_b1
  name: Flow B1
  kind: search
  search:
    countMin: 1
- id: flow_b2
  name: Flow B2
  kind: search
  search:
    countMin: 2
`)

	reg := NewRegistry()
	n, err := LoadDir(reg, dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("LoadDir() = %d, want 3", n)
	}

	// Files load in sorted path order.
	list := reg.List()
	wantOrder := []string{"flow_a", "flow_b1", "flow_b2"}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Errorf("List()[%d].ID = %s, want %s", i, list[i].ID, id)
		}
	}
}

func TestLoadGlob_NoMatches(t *testing.T) {
	reg := NewRegistry()
	n, err := LoadGlob(reg, filepath.Join(t.TempDir(), "nothing", "*.yaml"))
	if err != nil {
		t.Fatalf("LoadGlob() error = %v", err)
	}
	if n != 0 || reg.Len() != 0 {
		t.Errorf("LoadGlob() = %d flows, registry %d", n, reg.Len())
	}
}

func TestLoadFile_BadRule(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		rule string
	}{
		{"malformed", "price >="},
		{"non-boolean", "price + 1.0"},
		{"unknown variable", "warehouse == 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFlowFile(t, dir, tt.name+".yaml", `
id: bad_rule_`+tt.name+`
name: Bad Rule
kind: search
search:
  countMin: 1
  eachRule: "`+tt.rule+`"
`)
			reg := NewRegistry()
			_, err := LoadFile(reg, path)
			var verr *market.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("LoadFile() error = %v, want ValidationError", err)
			}
			if reg.Len() != 0 {
				t.Error("flow with a bad rule must not be registered")
			}
		})
	}
}

func TestLoadFile_StructuralError(t *testing.T) {
	dir := t.TempDir()
	path := writeFlowFile(t, dir, "bad.yaml", `
id: structurally_bad
name: Structurally Bad
kind: teleport
`)

	reg := NewRegistry()
	_, err := LoadFile(reg, path)
	var verr *market.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("LoadFile() error = %v, want ValidationError", err)
	}
	if verr.Field != "kind" {
		t.Errorf("Field = %s, want kind", verr.Field)
	}
}

func TestLoadFile_DuplicateWithinFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFlowFile(t, dir, "dup.yaml", `
- id: twice
  name: First
  kind: search
  search:
    countMin: 1
- id: twice
  name: Second
  kind: search
  search:
    countMin: 1
`)

	reg := NewRegistry()
	_, err := LoadFile(reg, path)
	var cerr *market.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("LoadFile() error = %v, want ConflictError", err)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFlowFile(t, dir, "empty.yaml", "   \n")

	reg := NewRegistry()
	_, err := LoadFile(reg, path)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("LoadFile(empty) error = %v", err)
	}
}

func TestLoadGlob_ReportsFileContext(t *testing.T) {
	dir := t.TempDir()
	writeFlowFile(t, dir, "broken.yaml", `
id: broken
name: Broken
kind: search
search:
  countMin: 1
  eachRule: "price >="
`)

	reg := NewRegistry()
	_, err := LoadGlob(reg, filepath.Join(dir, "*.yaml"))
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Fatalf("LoadGlob() error = %v, want the file named", err)
	}
}
