package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evolsim/evol/internal/engine"
	"github.com/evolsim/evol/internal/observe"
	"github.com/evolsim/evol/internal/params"
	"github.com/evolsim/evol/internal/sim"
	"github.com/evolsim/evol/internal/utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := params.Default()

	cmd := &cobra.Command{
		Use:   "evol",
		Short: "Evol: the non-life evolution simulator",
		Long: `Evol runs populations of DNA-programmed lifeforms on toroidal
arenas, one arena per engine thread, with an asteroid exchanging
lifeforms between arenas.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.NumEngines, "engines", cfg.NumEngines, "number of engines to run; 0 autodetects hardware concurrency")
	flags.IntVar(&cfg.Width, "width", cfg.Width, "arena width")
	flags.IntVar(&cfg.Height, "height", cfg.Height, "arena height")
	flags.IntVar(&cfg.StartingLifeforms, "seed-lifeforms", cfg.StartingLifeforms, "lifeforms seeded per engine")
	flags.IntVar(&cfg.AsteroidSize, "asteroid-size", cfg.AsteroidSize, "max lifeforms aboard the asteroid")
	flags.IntVar(&cfg.DumpInterval, "dump-interval", cfg.DumpInterval, "seconds between JSON dumps; 0 disables")
	flags.StringVar(&cfg.FeedAddr, "feed-addr", cfg.FeedAddr, "listen address for the websocket telemetry feed; empty disables")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "listen address for prometheus metrics; empty disables")
	flags.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "write a population-history HTML chart here on exit")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func run(cfg params.Config) error {
	level := utils.INFO
	if cfg.Verbose {
		level = utils.DEBUG
	}
	logger := utils.NewLogger(utils.LoggerConfig{
		Level:     level,
		Component: "evol",
		Colorize:  true,
	})
	utils.SetGlobalLogger(logger)

	sim.SetGlobalBounds(sim.Unit(cfg.Width), sim.Unit(cfg.Height))

	supervisor := engine.NewSupervisor(cfg, logger)
	supervisor.Start()

	graceful := utils.NewGracefulShutdown(15*time.Second, logger)
	graceful.Register(supervisor.Stop)

	if cfg.DumpInterval > 0 {
		dumper := observe.NewDumper(
			supervisor.Engines(),
			time.Duration(cfg.DumpInterval)*time.Second,
			".",
			logger.Named("dumper"),
		)
		dumper.Start()
		graceful.Register(dumper.Stop)
	}

	feed := observe.NewFeed(supervisor, logger.Named("feed"))
	feed.Start(cfg.FeedAddr)
	graceful.Register(feed.Stop)

	if cfg.ReportPath != "" {
		graceful.Register(func() error {
			return observe.WriteReport(feed.History(), cfg.ReportPath)
		})
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observe.Handler(supervisor))
		metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			logger.Info("metrics listening", utils.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", utils.Err(err))
			}
		}()
		graceful.Register(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(ctx)
		})
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info("signal received, shutting down", utils.String("signal", s.String()))

	return graceful.Shutdown(context.Background())
}
