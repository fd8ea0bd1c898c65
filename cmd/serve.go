package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/stockbell/internal/api"
	"github.com/shaharia-lab/stockbell/internal/build"
	"github.com/shaharia-lab/stockbell/internal/catalog"
	"github.com/shaharia-lab/stockbell/internal/config"
	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/history"
	"github.com/shaharia-lab/stockbell/internal/logger"
	"github.com/shaharia-lab/stockbell/internal/metrics"
	"github.com/shaharia-lab/stockbell/internal/notification"
	"github.com/shaharia-lab/stockbell/internal/scheduler"
	"github.com/shaharia-lab/stockbell/internal/server"
	"github.com/shaharia-lab/stockbell/internal/service"
	"github.com/shaharia-lab/stockbell/internal/shop"
	"github.com/shaharia-lab/stockbell/internal/telemetry"
	"github.com/shaharia-lab/stockbell/internal/watchlist"
)

// NewServeCmd returns the "serve" subcommand that runs the poll loop and
// the HTTP server.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the stock watcher and its HTTP API",
		Long: `Start stockbell: poll the shop, alert on watchlist items and serve the
REST API, the /ws alert channel and /metrics on http://localhost:<port>.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(build.Version, serverURL, logFile)

			if err := runServe(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "An error occurred: %v\nPlease check the logs at: %s\n", err, logFile)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCloser.Close() //nolint:errcheck

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.OTLPEndpoint,
		Version:      build.Version,
		UserAgent:    build.UserAgent(),
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			sysLogger.Warn("telemetry shutdown", "error", err)
		}
	}()
	sysLogger = logger.Tee(sysLogger, tel.LogHandler())

	sysLogger.Info("stockbell starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("store", cfg.StoreBackend),
		slog.String("coordinator", cfg.Coordinator),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	m, err := metrics.New(tel.Meter)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	st, err := openStores(ctx, cfg, sysLogger)
	if err != nil {
		return err
	}
	defer st.Close()

	coord, err := newCoordinator(ctx, cfg, st, sysLogger)
	if err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}
	defer coord.Close() //nolint:errcheck

	client := shop.NewClient(cfg.ShopBaseURL, cfg.ShopTimeout)
	hist := history.New(st.kv, cfg.HistoryLimit, sysLogger)
	wl := watchlist.New(st.kv, sysLogger)

	hub := notification.NewHub(sysLogger, originChecker(cfg.CORSAllowedOrigins))
	defer hub.Close()
	sinks := []notification.Sink{hub}
	if cfg.SMTPEnabled() {
		sinks = append(sinks, notification.NewSMTPSink(notification.SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.SMTPFrom,
			To:         strings.Split(cfg.SMTPTo, ","),
			Encryption: cfg.SMTPEncryption,
		}))
	}
	dispatcher := notification.NewDispatcher(st.notifications, m, sysLogger, sinks...)

	eng := engine.New(engine.Config{
		Source:    client,
		History:   hist,
		Watchlist: wl,
		Sink:      dispatcher,
		Publisher: coord,
		Metrics:   m,
		Logger:    sysLogger,
	})

	unsubscribe := coord.Subscribe(eng.HandleSnapshot)
	defer unsubscribe()

	sched, err := scheduler.New(scheduler.Config{
		Checker: eng,
		Policy: scheduler.Policy{
			Mode:             cfg.ScheduleMode,
			PollInterval:     cfg.PollInterval,
			RetryBackoff:     cfg.RetryBackoff,
			UpdateBuffer:     cfg.UpdateBuffer,
			MaxAdaptiveDelay: cfg.MaxAdaptiveDelay,
		},
		Logger: sysLogger,
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			sysLogger.Warn("scheduler shutdown", "error", err)
		}
	}()

	stockSvc := service.NewStockService(client, catalog.Default(), wl, coord, sysLogger)
	watchlistSvc := service.NewWatchlistService(wl, eng, sched, sysLogger)
	monitorSvc := service.NewMonitorService(eng, sched, hist, st.notifications)

	apiSrv := api.New(stockSvc, watchlistSvc, monitorSvc, sysLogger)
	srv := server.New(apiSrv, server.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Registry:       tel.Registry,
		WebSocket:      hub,
	}, sysLogger)

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	return srv.Run(ctx)
}

// originChecker accepts websocket upgrades from the configured CORS origins.
// A "*" entry accepts any origin.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return nil
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// printBanner writes the startup banner to stdout. It is the only output
// visible in the terminal during normal operation; all structured logs go
// to the log file instead.
func printBanner(version, serverURL, logFile string) {
	fmt.Print(`
     _             _    _          _ _
 ___| |_ ___   ___| | _| |__   ___| | |
/ __| __/ _ \ / __| |/ / '_ \ / _ \ | |
\__ \ || (_) | (__|   <| |_) |  __/ | |
|___/\__\___/ \___|_|\_\_.__/ \___|_|_|

`)
	fmt.Printf("stockbell %s running.\n", version)
	fmt.Printf("API: %s/api  alerts: %s/ws\n", serverURL, strings.Replace(serverURL, "http", "ws", 1))
	fmt.Printf("Logs: %s\n\n", logFile)
}
