package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/marketd/marketd/pkg/flows"
)

func TestLoadFlowRegistryBuiltinsOnly(t *testing.T) {
	flowPatterns = nil

	reg, err := loadFlowRegistry()
	if err != nil {
		t.Fatalf("loadFlowRegistry: %v", err)
	}
	if got, want := reg.Len(), flows.Builtin().Len(); got != want {
		t.Errorf("registry size: got %d, want %d", got, want)
	}
}

func TestLoadFlowRegistryWithPatterns(t *testing.T) {
	dir := t.TempDir()
	doc := `- id: flow_cli_listed
  name: Listed via CLI
  instruction: Verify the yoga mat is still for sale.
  kind: update
  target:
    sellerId: SELLER005
    sku: YOGA-001
  expect:
    status: ACTIVE
`
	if err := os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write flow file: %v", err)
	}

	flowPatterns = []string{filepath.Join(dir, "*.yaml")}
	defer func() { flowPatterns = nil }()

	reg, err := loadFlowRegistry()
	if err != nil {
		t.Fatalf("loadFlowRegistry: %v", err)
	}
	if _, ok := reg.Get("flow_cli_listed"); !ok {
		t.Error("flow from pattern not registered")
	}
}

func TestLoadFlowRegistryBadPattern(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("- id: nameless\n"), 0o644); err != nil {
		t.Fatalf("write flow file: %v", err)
	}

	flowPatterns = []string{filepath.Join(dir, "*.yaml")}
	defer func() { flowPatterns = nil }()

	if _, err := loadFlowRegistry(); err == nil {
		t.Fatal("expected error for broken flow file")
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]any{"quantity": 50, "price": 999.99, "status": "ACTIVE"})
	want := []string{"price", "quantity", "status"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortedKeys: got %v, want %v", got, want)
	}
}
