package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/stockbell/internal/build"
	"github.com/shaharia-lab/stockbell/internal/config"
)

// NewRootCmd builds the command tree around a loaded configuration.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:     "stockbell",
		Short:   "Plants vs Brainrots stock alerts",
		Long:    "stockbell watches the Plants vs Brainrots shop and alerts when items on your watchlist come into stock.",
		Version: build.String(),
	}
	root.AddCommand(
		NewServeCmd(cfg),
		NewCheckCmd(cfg),
		NewWatchlistCmd(cfg),
		NewUpdateCmd(),
	)
	return root
}

// Execute loads configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
