package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockTrendPCA/internal/analysis"
	"stockTrendPCA/internal/config"
	"stockTrendPCA/internal/finance"
	"stockTrendPCA/internal/logger"
	"stockTrendPCA/internal/metrics"
	"stockTrendPCA/internal/pca"
	"stockTrendPCA/internal/storage"
)

const version = "v0.3.0"

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	basket  config.Basket
	metrics *metrics.Registry
	store   *storage.Store
	service *analysis.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string
	var pretty bool

	root := &cobra.Command{
		Use:           "stockpca",
		Short:         "PCA of daily stock returns",
		Long:          "stockpca finds the dominant co-movement in a basket of stocks with a principal component analysis of daily returns.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("pretty") {
				cfg.LogPretty = pretty
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
			logger.SetGlobalLogger(a.log)

			a.basket, err = config.LoadBasket(cfg.BasketFile)
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store != nil {
				return a.store.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable console logs")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newBasketCmd(a))
	return root
}

// wire opens the database and builds the analysis service.
func (a *app) wire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.OpenSQLite("file:" + a.cfg.DBPath + "?_busy_timeout=5000")
	if err != nil {
		return err
	}
	if err := storage.InitSchema(ctx, db); err != nil {
		db.Close()
		return err
	}
	a.log.Info().Str("path", a.cfg.DBPath).Msg("sqlite ready")
	a.store = storage.NewStore(db)

	a.metrics = metrics.New()
	provider := finance.NewYahooProvider(finance.YahooOptions{
		RatePerSec: a.cfg.YahooRatePerSec,
		CleanIQR:   a.cfg.CleanIQR,
		Logger:     a.log,
		OnRequest:  a.metrics.ProviderObserver("yahoo"),
	})
	a.service = analysis.NewService(analysis.Options{
		Provider:     provider,
		Store:        a.store,
		Charts:       finance.NewChartRenderer(a.cfg.ChartCacheTTL),
		Metrics:      a.metrics,
		Basket:       a.basket,
		DefaultStart: a.cfg.DefaultStart,
		DefaultEnd:   a.cfg.DefaultEnd,
		Solver:       pca.Options{MaxIterations: a.cfg.JacobiMaxIter},
		QuoteTTL:     a.cfg.QuoteCacheTTL,
		Logger:       a.log,
	})
	return nil
}
