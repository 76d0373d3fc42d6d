package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/concord/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage concord configuration",
}

var flagConfigPath string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfigPath
		if path == "" {
			path = ".concord.yaml"
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Config file created at %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg *config.Config
		if flagConfigPath != "" {
			loaded, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}
			cfg = loaded
		} else {
			cfg = config.LoadOrDefault()
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.PersistentFlags().StringVar(&flagConfigPath, "path", "", "Config file path")
}
