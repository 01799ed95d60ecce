package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/marketd/marketd/pkg/cli/internal/output"
	"github.com/marketd/marketd/pkg/config"
)

var (
	configShowFile string

	configInitOutput string
	configInitForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold server configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved configuration",
	Long: `Display the effective configuration after defaults, the configuration
file, and MARKETD_* environment variables have been applied.`,
	Example: `  # Show the resolved configuration as YAML
  marketd config show

  # Show a specific file, resolved
  marketd config show -c ./production.yaml

  # Output as JSON
  marketd config show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(configShowFile)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Example: `  # Create marketd.yaml with defaults
  marketd config init

  # Create a JSON config at a custom path
  marketd config init -o configs/marketd.json

  # Overwrite an existing file
  marketd config init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(configInitOutput, configInitForce)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().StringVarP(&configShowFile, "config", "c", "", "Path to configuration file")

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "marketd.yaml", "Output filename (.yaml, .yml or .json)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite existing config file")
}

func runConfigShow(path string) error {
	// Same env layering the server sees.
	_ = godotenv.Load()

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(cfg)
	}

	source := path
	if source == "" {
		source = config.Discover()
	}
	if source == "" {
		fmt.Println("# Resolved configuration (defaults and environment only)")
	} else {
		fmt.Printf("# Resolved configuration from %s\n", source)
	}
	fmt.Println("# Environment variables have been expanded")
	fmt.Println()

	data, err := config.ToYAML(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runConfigInit(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("file already exists: %s\n\nUse --force to overwrite", path)
	}

	if err := config.SaveToFile(path, config.Default()); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println()
	fmt.Println("Start the server with:")
	fmt.Printf("  marketd serve --config %s\n", path)
	return nil
}
