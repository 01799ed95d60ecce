package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/marketd/marketd/pkg/cli/internal/output"
	"github.com/marketd/marketd/pkg/flows"
)

// flowPatterns holds --flows glob patterns for the flows command group.
var flowPatterns []string

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the validation flows the server knows about",
	Long: `List validation flows: the builtin catalog plus any flow files matched by
--flows glob patterns. Each flow is an agent task with checks that decide
whether the task was carried out.`,
	Example: `  # List builtin flows
  marketd flows

  # Include flows from YAML files
  marketd flows --flows './flows/**/*.yaml'

  # Machine-readable listing
  marketd flows --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlowsList()
	},
}

var flowsShowCmd = &cobra.Command{
	Use:   "show <flow-id>",
	Short: "Show one validation flow in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlowsShow(args[0])
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
	flowsCmd.AddCommand(flowsShowCmd)

	flowsCmd.PersistentFlags().StringSliceVar(&flowPatterns, "flows", nil, "Glob patterns for extra validation flow files")
}

// loadFlowRegistry builds the registry the command operates on: builtins
// plus anything matched by --flows.
func loadFlowRegistry() (*flows.Registry, error) {
	reg := flows.Builtin()
	for _, pattern := range flowPatterns {
		if _, err := flows.LoadGlob(reg, pattern); err != nil {
			return nil, fmt.Errorf("failed to load flows from %q: %w", pattern, err)
		}
	}
	return reg, nil
}

// flowListEntry is one row of the JSON flow listing.
type flowListEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func runFlowsList() error {
	reg, err := loadFlowRegistry()
	if err != nil {
		return err
	}
	list := reg.List()

	if jsonOutput {
		entries := make([]flowListEntry, 0, len(list))
		for _, f := range list {
			entries = append(entries, flowListEntry{
				ID:          f.ID,
				Name:        f.Name,
				Kind:        string(f.Kind),
				Description: f.Description,
			})
		}
		return output.JSON(entries)
	}

	// Group by kind, keeping registry order inside each group.
	byKind := make(map[flows.Kind][]*flows.Flow)
	for _, f := range list {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	title := cases.Title(language.English)
	order := []flows.Kind{flows.KindCreate, flows.KindUpdate, flows.KindDelete, flows.KindSearch, flows.KindAggregate}
	for _, kind := range order {
		group, ok := byKind[kind]
		if !ok {
			continue
		}
		fmt.Printf("%s:\n", title.String(string(kind)))
		w := output.Table()
		for _, f := range group {
			fmt.Fprintf(w, "  %s\t%s\n", f.ID, f.Name)
		}
		_ = w.Flush()
		fmt.Println()
	}

	fmt.Printf("%d flows. Use 'marketd flows show <flow-id>' for details.\n", len(list))
	return nil
}

func runFlowsShow(id string) error {
	reg, err := loadFlowRegistry()
	if err != nil {
		return err
	}

	f, ok := reg.Get(id)
	if !ok {
		return fmt.Errorf("unknown flow %q — run 'marketd flows' to list them", id)
	}

	if jsonOutput {
		return output.JSON(f)
	}

	fmt.Printf("%s (%s)\n", f.ID, f.Kind)
	fmt.Printf("Name:         %s\n", f.Name)
	if f.Description != "" {
		fmt.Printf("Description:  %s\n", f.Description)
	}
	fmt.Printf("Instruction:  %s\n", f.Instruction)
	if f.Target != nil {
		fmt.Printf("Target:       %s\n", f.Target)
	}
	if len(f.Expect) > 0 {
		fmt.Println("Expects:")
		w := output.Table()
		for _, field := range sortedKeys(f.Expect) {
			fmt.Fprintf(w, "  %s\t%v\n", field, f.Expect[field])
		}
		_ = w.Flush()
	}
	if f.Search != nil {
		fmt.Println("Search:")
		printSearchSpec(f.Search)
	}
	if f.Aggregate != nil {
		fmt.Printf("Aggregate:    %s by %s\n", f.Aggregate.Metric, f.Aggregate.GroupBy)
		w := output.Table()
		for _, top := range f.Aggregate.Top {
			fmt.Fprintf(w, "  %s/%s\t%.2f\n", top.SellerID, top.SKU, top.Price)
		}
		_ = w.Flush()
	}
	if f.Tolerance > 0 {
		fmt.Printf("Tolerance:    %g\n", f.Tolerance)
	}
	return nil
}

func printSearchSpec(s *flows.SearchSpec) {
	w := output.Table()
	if s.SellerID != "" {
		fmt.Fprintf(w, "  sellerId\t%s\n", s.SellerID)
	}
	if s.Status != "" {
		fmt.Fprintf(w, "  status\t%s\n", s.Status)
	}
	if len(s.Keywords) > 0 {
		fmt.Fprintf(w, "  keywords\t%s\n", strings.Join(s.Keywords, ", "))
	}
	if s.PriceMin != nil {
		fmt.Fprintf(w, "  priceMin\t%.2f\n", *s.PriceMin)
	}
	if s.PriceMax != nil {
		fmt.Fprintf(w, "  priceMax\t%.2f\n", *s.PriceMax)
	}
	if s.CountExact != nil {
		fmt.Fprintf(w, "  countExact\t%d\n", *s.CountExact)
	} else if s.CountMin > 0 {
		fmt.Fprintf(w, "  countMin\t%d\n", s.CountMin)
	}
	if s.EachRule != "" {
		fmt.Fprintf(w, "  eachRule\t%s\n", s.EachRule)
	}
	_ = w.Flush()
}

// sortedKeys returns the map's keys in lexical order for stable output.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
