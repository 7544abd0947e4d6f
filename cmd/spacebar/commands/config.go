package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage SpaceBar configuration",
	Long:  `View and manage SpaceBar configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current SpaceBar configuration.`,
	Example: `  # Show configuration as YAML (default)
  spacebar config show

  # Show configuration as JSON
  spacebar config show --format json`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value. Keys use dots for nesting and
durations use Go syntax (250ms, 5s).`,
	Example: `  # Set server port
  spacebar config set server_port 9090

  # Poll the window manager every 10 seconds
  spacebar config set refresh.fallback_interval 10s`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Long:  `Get a specific configuration value.`,
	Example: `  # Get server port
  spacebar config get server_port

  # Get the provider
  spacebar config get provider`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

var formatFlag string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "output format (yaml or json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configMgr, _, err := loadConfig()
	if err != nil {
		return err
	}

	cfg := configMgr.Get()

	switch formatFlag {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", formatFlag)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	configMgr, _, err := loadConfig()
	if err != nil {
		return err
	}

	if err := configMgr.SetKey(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration updated: %s = %s\n", key, value)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	configMgr, _, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := configMgr.GetKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Available keys:\n")
		for _, k := range configMgr.Keys() {
			fmt.Fprintf(os.Stderr, "  %s\n", k)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configMgr, _, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), configMgr.GetConfigPath())
	return nil
}
