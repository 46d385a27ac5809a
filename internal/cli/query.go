package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lydakis/gemini-mcp/internal/client"
	"github.com/lydakis/gemini-mcp/internal/gateway"
	"github.com/lydakis/gemini-mcp/internal/orchestrator"
	"github.com/spf13/cobra"
)

// remoteGrace is added on top of the server's own invocation timeout.
const remoteGrace = 10 * time.Second

type queryOptions struct {
	url     string
	headers map[string]string
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	qopts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query [text...]",
		Short: "Send one query and print the result",
		Long: "Send one query and print the result. Without --url the configured command runs locally;\n" +
			"with --url the query goes to a running server. With no text arguments, or \"-\", the text is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := queryText(args)
			if err != nil {
				return withExit(client.ExitInternal, err)
			}
			if qopts.url != "" {
				return runRemoteQuery(cmd.Context(), qopts, text)
			}
			return runLocalQuery(cmd.Context(), opts, text)
		},
	}
	cmd.Flags().StringVar(&qopts.url, "url", "", "MCP endpoint of a running server, e.g. http://localhost:13001/mcp")
	cmd.Flags().StringToStringVarP(&qopts.headers, "header", "H", nil, "extra HTTP header for --url (key=value, repeatable)")
	return cmd
}

func queryText(args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(rootStdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func runLocalQuery(ctx context.Context, opts *rootOptions, text string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return withExit(client.ExitInternal, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	gw := gateway.New(orchestrator.New(cfg.Command))
	out, err := gw.Query(ctx, text)
	if err != nil {
		if errors.Is(err, gateway.ErrEmptyQuery) {
			return withExit(client.ExitUsageErr, err)
		}
		return withExit(client.ExitToolErr, err)
	}
	fmt.Fprintln(rootStdout, out)
	return nil
}

func runRemoteQuery(ctx context.Context, qopts *queryOptions, text string) error {
	if strings.TrimSpace(text) == "" {
		return withExit(client.ExitUsageErr, gateway.ErrEmptyQuery)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, orchestrator.DefaultTimeout+remoteGrace)
	defer cancel()

	c, err := client.Dial(ctx, qopts.url, qopts.headers, buildVersion)
	if err != nil {
		return withExit(client.ExitInternal, fmt.Errorf("connecting to %s: %w", qopts.url, err))
	}
	defer c.Close()

	result, err := c.Query(ctx, text)
	if err != nil {
		return withExit(client.ClassifyCallError(err), fmt.Errorf("calling query: %w", err))
	}

	out, code := client.Unwrap(result)
	if code != client.ExitOK {
		return withExit(code, errors.New(out))
	}
	fmt.Fprintln(rootStdout, out)
	return nil
}
