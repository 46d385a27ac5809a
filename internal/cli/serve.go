package cli

import (
	"github.com/lydakis/gemini-mcp/internal/client"
	"github.com/lydakis/gemini-mcp/internal/config"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWith(opts, transport)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "", "override the configured transport (http or stdio)")
	return cmd
}

func runServe(opts *rootOptions) error {
	return runServeWith(opts, "")
}

func runServeWith(opts *rootOptions, transport string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return withExit(client.ExitInternal, err)
	}
	if transport != "" {
		cfg.Transport = transport
	}
	if err := config.Validate(cfg); err != nil {
		return withExit(client.ExitUsageErr, err)
	}

	if !cfg.IsStdio() {
		bannerColor.Fprintf(rootStderr, "gemini-mcp %s: serving tool %q on http://%s%s\n", //nolint: errcheck
			buildVersion, "query", cfg.Listen.Addr(), cfg.Listen.Endpoint)
	}

	if err := serveFn(cfg, buildVersion); err != nil {
		return withExit(client.ExitInternal, err)
	}
	return nil
}
