package cli

import (
	"fmt"
	"os"

	"github.com/lydakis/gemini-mcp/internal/client"
	"github.com/lydakis/gemini-mcp/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.ExampleConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return withExit(client.ExitUsageErr, fmt.Errorf("%s already exists (use --force to overwrite)", path))
			}
			if err := config.SaveTo(path, config.Default()); err != nil {
				return withExit(client.ExitInternal, err)
			}
			fmt.Fprintf(rootStdout, "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return withExit(client.ExitInternal, err)
			}
			if err := config.Encode(rootStdout, cfg); err != nil {
				return withExit(client.ExitInternal, err)
			}
			if verr := config.Validate(cfg); verr != nil {
				return withExit(client.ExitUsageErr, fmt.Errorf("invalid config: %w", verr))
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
