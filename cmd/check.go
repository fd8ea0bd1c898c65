package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/stockbell/internal/catalog"
	"github.com/shaharia-lab/stockbell/internal/config"
	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/logger"
	"github.com/shaharia-lab/stockbell/internal/shop"
	"github.com/shaharia-lab/stockbell/internal/watchlist"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	watchedStyle = cellStyle.Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// NewCheckCmd returns the "check" subcommand that prints the current stock
// once. It never touches the history, so it cannot suppress a later alert.
func NewCheckCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print the current shop stock and watchlist matches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lipgloss.SetColorProfile(termenv.EnvColorProfile())
			return runCheck(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func runCheck(ctx context.Context, cfg *config.AppConfig, out io.Writer) error {
	client := shop.NewClient(cfg.ShopBaseURL, cfg.ShopTimeout)

	snap, err := client.FetchStock(ctx)
	if err != nil {
		return fmt.Errorf("fetching stock: %w", err)
	}

	var names []string
	if st, err := openStores(ctx, cfg, logger.Discard()); err == nil {
		names = watchlist.New(st.kv, logger.Discard()).Get(ctx)
		st.Close()
	} else {
		fmt.Fprintln(out, dimStyle.Render("watchlist unavailable: "+err.Error()))
	}

	cat := catalog.Default()
	watched := make(map[string]bool, len(names))
	for _, n := range names {
		watched[n] = true
	}

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Report %s", snap.ID()))+" "+
		dimStyle.Render(time.UnixMilli(snap.ReportedAt).Local().Format(time.DateTime)))
	fmt.Fprintln(out, renderStock("Seeds", cat.SortSeeds(snap.Seeds), cat, watched))
	fmt.Fprintln(out, renderStock("Gear", catalog.SortGear(snap.Gear), cat, watched))

	if w, err := client.FetchWeather(ctx); err == nil && w.Active {
		line := "Weather: " + w.Name
		if ev, ok := cat.Weather(w.Name); ok {
			line = fmt.Sprintf("Weather: %s (%s, %s)", ev.DisplayName, ev.Mutation, ev.Multiplier)
		}
		fmt.Fprintln(out, line)
	}

	matches := engine.Matches(snap, names)
	switch {
	case len(names) == 0:
		fmt.Fprintln(out, dimStyle.Render("Watchlist is empty."))
	case len(matches) == 0:
		fmt.Fprintln(out, "No watchlist items in stock.")
	default:
		fmt.Fprintln(out, watchedStyle.Render("In stock: "+strings.Join(matches, ", ")))
	}
	if next := snap.NextUpdate(); !next.IsZero() {
		fmt.Fprintln(out, dimStyle.Render("Next update in "+time.Until(next).Round(time.Second).String()))
	}
	return nil
}

func renderStock(title string, items []shop.Item, cat *catalog.Catalog, watched map[string]bool) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		tier := ""
		if t := cat.Tier(it.Name); t > 0 {
			tier = "T" + strconv.Itoa(t)
		}
		mark := ""
		if watched[it.Name] {
			mark = "★"
		}
		rows = append(rows, []string{strings.TrimSpace(it.Emoji + " " + it.Name), strconv.Itoa(it.Qty), tier, mark})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(title, "Qty", "Tier", "Watch").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(items) && watched[items[row].Name]:
				return watchedStyle
			default:
				return cellStyle
			}
		})
	if len(rows) == 0 {
		return t.String() + "\n" + dimStyle.Render("  (none)")
	}
	return t.String()
}
