// cmd/shelfengine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shelfworks/shelfengine/internal/circuitbreaker"
	"github.com/shelfworks/shelfengine/internal/config"
	"github.com/shelfworks/shelfengine/internal/engine"
	"github.com/shelfworks/shelfengine/internal/logging"
	"github.com/shelfworks/shelfengine/internal/replay"
	"github.com/shelfworks/shelfengine/internal/sweep"
)

// Version information (set by build system via ldflags)
var (
	Version   = "v0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "shelfengine",
		Short: "In-process store inventory engine: seed, replay, and inspect",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "shelfengine.yaml", "path to engine config file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("shelfengine %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}

	var replayLogPath string
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Load the seed dataset and replay an NDJSON command log against it",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runReplay(configFile, replayLogPath)
		},
	}
	replayCmd.Flags().StringVar(&replayLogPath, "log", "", "path to the NDJSON command log (required)")
	_ = replayCmd.MarkFlagRequired("log")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the seed dataset, start the sweep scheduler, and accept commands on stdin",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(configFile)
		},
	}

	rootCmd.AddCommand(versionCmd, replayCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap(configFile string) (*engine.Engine, config.EngineConfig, logging.EngineLogger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, config.EngineConfig{}, nil, errors.Wrap(err, "load config")
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, cfg, nil, errors.Wrap(err, "build logger")
	}

	e := engine.New(logger, engine.UUIDGenerator{}, cfg.DedupWindow(), cfg.PresenceTTL(), circuitbreaker.DefaultConfig())

	dataset, err := loadDataset(cfg.SeedPath)
	if err != nil {
		return nil, cfg, logger, errors.Wrap(err, "load seed dataset")
	}
	if err := e.Seed(dataset, time.Now()); err != nil {
		return nil, cfg, logger, errors.Wrap(err, "apply seed dataset")
	}

	logger.Info("engine seeded",
		zap.String("seed_path", cfg.SeedPath),
		zap.Int("locations", len(dataset.Locations)),
		zap.Int("skus", len(dataset.SKUs)),
	)
	return e, cfg, logger, nil
}

func loadDataset(path string) (engine.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.Dataset{}, errors.Wrap(err, "read seed file")
	}
	var d engine.Dataset
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return engine.Dataset{}, errors.Wrap(err, "parse seed yaml")
	}
	return d, nil
}

func runReplay(configFile, logPath string) error {
	e, _, logger, err := bootstrap(configFile)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	f, err := os.Open(logPath)
	if err != nil {
		return errors.Wrap(err, "open replay log")
	}
	defer f.Close()

	accepted, rejected, failed := 0, 0, 0
	err = replay.Run(e, f, func(o replay.Outcome) {
		printOutcome(o)
		switch {
		case o.Err != nil:
			failed++
		case o.Result.Status == "accepted" || o.Result.Status == "accepted_rfid_immediate" || o.Result.Status == "confirmed":
			accepted++
		default:
			rejected++
		}
	})
	if err != nil {
		return errors.Wrap(err, "replay log")
	}

	logger.Info("replay complete",
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Int("failed", failed),
	)
	printDashboard(e)
	return nil
}

func runServe(configFile string) error {
	e, cfg, logger, err := bootstrap(configFile)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := sweep.New(e, cfg.AutoSweepInterval(), logger, time.Now)
	sched.Start(ctx)
	defer sched.Stop()

	if err := config.Watch(configFile, logger, func(config.EngineConfig) {
		logger.Info("config reload observed; sweep cadence change takes effect on next restart")
	}); err != nil {
		logger.Warn("config hot-reload disabled", zap.Error(err))
	}

	logger.Info("serving: reading NDJSON commands from stdin, ctrl-C to stop")

	done := make(chan error, 1)
	go func() {
		done <- replay.Run(e, os.Stdin, printOutcome)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "command stream")
		}
		return nil
	}
}

func printOutcome(o replay.Outcome) {
	if o.Err != nil {
		fmt.Printf("line %d: error: %v\n", o.Line, o.Err)
		return
	}
	b, _ := json.Marshal(o.Result)
	fmt.Printf("line %d: %s -> %s\n", o.Line, o.Type, string(b))
}

func printDashboard(e *engine.Engine) {
	rows := e.Dashboard()
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal dashboard:", err)
		return
	}
	fmt.Println(string(b))
}
