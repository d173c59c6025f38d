package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	demo     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pricesearch",
		Short: "Search product prices across Brazilian stores",
		Long: `pricesearch queries every configured store concurrently and prints the
offers ordered by price, cheapest first.

Store endpoints, timeouts and caching are read from the same environment
variables as the HTTP service (SEARCH_TIMEOUT_MS, SEARCH_PROVIDERS, ...).`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log", "warn",
		"Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.demo, "demo", false,
		"Use the built-in demo catalog instead of the live stores")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newProvidersCmd(opts))
	return cmd
}
