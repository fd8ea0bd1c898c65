package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/stockbell/internal/catalog"
	"github.com/shaharia-lab/stockbell/internal/config"
	"github.com/shaharia-lab/stockbell/internal/logger"
	"github.com/shaharia-lab/stockbell/internal/service"
	"github.com/shaharia-lab/stockbell/internal/watchlist"
)

// NewWatchlistCmd returns the "watchlist" subcommand that edits the
// persisted watchlist directly. A running server picks the change up on its
// next check.
func NewWatchlistCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Show or edit the watchlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the watchlist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withWatchlist(cmd.Context(), cfg, func(svc service.WatchlistService) error {
				return printWatchlist(cmd.OutOrStdout(), svc.List(cmd.Context()))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <name>",
		Short: "Add an item to the watchlist, or remove it if present",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withWatchlist(cmd.Context(), cfg, func(svc service.WatchlistService) error {
				if !catalog.Default().IsSeed(name) {
					fmt.Fprintf(cmd.ErrOrStderr(), "note: %q is not a known seed\n", name)
				}
				names, err := svc.Toggle(cmd.Context(), name)
				if err != nil {
					return err
				}
				return printWatchlist(cmd.OutOrStdout(), names)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every item from the watchlist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withWatchlist(cmd.Context(), cfg, func(svc service.WatchlistService) error {
				if err := svc.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Watchlist cleared.")
				return nil
			})
		},
	})

	return cmd
}

func withWatchlist(ctx context.Context, cfg *config.AppConfig, fn func(service.WatchlistService) error) error {
	st, err := openStores(ctx, cfg, logger.Discard())
	if err != nil {
		return err
	}
	defer st.Close()

	store := watchlist.New(st.kv, logger.Discard())
	return fn(service.NewWatchlistService(store, nil, nil, logger.Discard()))
}

func printWatchlist(w io.Writer, names []string) error {
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "Watchlist is empty.")
		return err
	}
	for _, n := range catalog.Default().SortSeedNames(names) {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}
