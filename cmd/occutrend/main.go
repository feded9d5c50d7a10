package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/HerbHall/occutrend/internal/config"
	"github.com/HerbHall/occutrend/internal/schedule"
	"github.com/HerbHall/occutrend/internal/store"
	"github.com/HerbHall/occutrend/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "repair":
		err = runRepair(ctx, os.Args[2:])
	case "train":
		err = runTrain(ctx, os.Args[2:])
	case "predict":
		err = runPredict(ctx, os.Args[2:])
	case "insights":
		err = runInsights(ctx, os.Args[2:])
	case "stats":
		err = runStats(ctx, os.Args[2:])
	case "version":
		fmt.Println(version.Info())
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `occutrend - occupancy time-series repair, analytics and forecasting

Usage:
  occutrend <command> [flags]

Commands:
  repair     fill gaps, zero out-of-hours samples and add end-of-day markers
  train      train the forecasting model and persist a snapshot
  predict    forecast occupancy for the coming hours
  insights   generate ranked occupancy insights
  stats      print occupancy statistics per weekday and hour
  version    print version information

Run "occutrend <command> -h" for command flags.`)
}

// app bundles the wiring every subcommand shares: configuration, logger,
// database and opening-hours schedule.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *store.SQLiteStore
	samples   *store.SampleStore
	snapshots *store.SnapshotStore
	sched     *schedule.Schedule
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, v, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Debug("no configuration file found, using defaults")
	}

	sched, err := cfg.BuildSchedule()
	if err != nil {
		return nil, err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Migrate(ctx, "occupancy", store.Migrations()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	return &app{
		cfg:       cfg,
		log:       logger,
		db:        db,
		samples:   store.NewSampleStore(db.DB()),
		snapshots: store.NewSnapshotStore(db.DB()),
		sched:     sched,
	}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.db.Close()
}
