package cmd

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/config"
	"github.com/fedwatch/ptr-crawler/internal/crawler"
	"github.com/fedwatch/ptr-crawler/internal/fetch"
	"github.com/fedwatch/ptr-crawler/internal/logging"
	"github.com/fedwatch/ptr-crawler/internal/metrics"
	"github.com/fedwatch/ptr-crawler/internal/pdftext"
	"github.com/fedwatch/ptr-crawler/internal/store/postgres"
)

// newCrawlCmd creates the 'crawl' subcommand: one full crawl cycle, intended
// to be invoked periodically by an external scheduler.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl cycle",
		Long: `Discovers new reporting years from the persisted checkpoint, indexes
each year's disclosure archive, and parses every member's pending filings
into trade records. Safe to re-run: already-processed work is skipped.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	metrics.Init()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Port, logger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetchCfg := fetch.Config{
		ArchiveBaseURL:  cfg.HTTP.ArchiveBaseURL,
		DocumentBaseURL: cfg.HTTP.DocumentBaseURL,
		UserAgent:       cfg.HTTP.UserAgent,
		Timeout:         cfg.HTTPTimeout(),
		RetryCount:      cfg.HTTP.MaxRetries,
		RetryWaitMin:    cfg.BackoffInitial(),
		RetryWaitMax:    cfg.BackoffMax(),
	}

	c := crawler.New(
		postgres.Dialer(cfg.DB.DSN),
		fetch.NewArchiveClient(fetchCfg),
		fetch.NewDocumentClient(fetchCfg),
		pdftext.PlainText{},
		crawler.Config{
			YearWorkers:      cfg.Crawler.YearWorkers,
			MembersPerWorker: cfg.Crawler.MembersPerWorker,
			MaxMemberWorkers: cfg.Crawler.MaxMemberWorkers,
		},
		logger,
	)

	if err := c.Run(ctx); err != nil {
		return fmt.Errorf("run crawl cycle: %w", err)
	}
	logger.Info("crawl cycle finished")
	return nil
}

func serveMetrics(port int, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
