package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hitclient",
		Short: "GET and POST through the auth library's HTTP transport.",
		Long: `hitclient issues GET and POST requests through the same executor the
authentication library uses: connect and total timeouts, capped redirects,
an explicit HTTP proxy and a custom CA path, configured from hitclient.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGetCmd())
	root.AddCommand(newPostCmd())
	root.AddCommand(newRequestCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitUsageError)
	}
}
