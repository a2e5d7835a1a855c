package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maidsafe/safeload/pkg/config"
	"github.com/maidsafe/safeload/pkg/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		source := appConfigPath
		if _, err := os.Stat(appConfigPath); os.IsNotExist(err) {
			source += " (not found, using defaults)"
		}

		fmt.Println(ui.FormatMuted("# " + source))
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(appConfigPath); err == nil && !configForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", appConfigPath)
		}

		if err := config.DefaultConfig().Save(appConfigPath); err != nil {
			return err
		}

		fmt.Println(ui.FormatSuccess("Config written to " + appConfigPath))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
}
