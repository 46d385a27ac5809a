package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/lydakis/gemini-mcp/internal/client"
	"github.com/lydakis/gemini-mcp/internal/config"
	"github.com/lydakis/gemini-mcp/internal/daemon"
	"github.com/spf13/cobra"
)

var (
	rootStdout io.Writer = os.Stdout
	rootStderr io.Writer = os.Stderr
	rootStdin  io.Reader = os.Stdin
	serveFn              = daemon.Run

	errColor    = color.New(color.FgRed)
	bannerColor = color.New(color.FgGreen)
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	return &exitError{code: code, err: err}
}

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(rootStdin)
	cmd.SetOut(rootStdout)
	cmd.SetErr(rootStderr)

	err := cmd.Execute()
	if err == nil {
		return client.ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			printError(ee.err)
		}
		return ee.code
	}
	// Anything cobra rejects on its own is a flag or argument problem.
	printError(err)
	return client.ExitUsageErr
}

func printError(err error) {
	errColor.Fprintf(rootStderr, "gemini-mcp: %v\n", err) //nolint: errcheck
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "gemini-mcp",
		Short:         "MCP server that forwards queries to the gemini CLI",
		Long:          "gemini-mcp exposes a single MCP tool, query, that pipes its text into the gemini CLI and returns the CLI's output.",
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(opts)
		},
	}
	cmd.SetVersionTemplate("gemini-mcp {{.Version}}\n")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.ExampleConfigPath()+")")

	cmd.AddCommand(
		newServeCmd(opts),
		newQueryCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFrom(opts.configPath)
	}
	return config.Load()
}
