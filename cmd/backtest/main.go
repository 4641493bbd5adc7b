package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/klinebt/config"
	"github.com/alejandrodnm/klinebt/internal/adapters/archive"
	"github.com/alejandrodnm/klinebt/internal/adapters/notify"
	"github.com/alejandrodnm/klinebt/internal/adapters/report"
	"github.com/alejandrodnm/klinebt/internal/adapters/storage"
	"github.com/alejandrodnm/klinebt/internal/application/backtest"
	"github.com/alejandrodnm/klinebt/internal/domain/strategy"
	"github.com/alejandrodnm/klinebt/internal/ports"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}
}

// run contiene todo el programa; main solo traduce su error a exit code
// para que los defers se ejecuten siempre.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	dataPath := fs.String("data", "", "kline archive, directory or file (overrides config)")
	workers := fs.Int("workers", 0, "max concurrent instrument evaluations (overrides config)")
	mode := fs.String("mode", "", "scheduler mode: batch|pool (overrides config)")
	out := fs.String("out", "", "report file path (overrides config)")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	logFormat := fs.String("format", "", "log format: text|json (overrides config)")
	table := fs.Bool("table", false, "print top instruments table")
	history := fs.Int("history", 0, "print the last N stored runs and exit (needs storage.dsn)")
	show := fs.String("show", "", "print a stored run by id and exit (needs storage.dsn)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", *configPath, err)
	}

	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *workers > 0 {
		cfg.Backtest.Workers = *workers
	}
	if *mode != "" {
		cfg.Backtest.Mode = *mode
	}
	if *out != "" {
		cfg.Report.Path = *out
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *table {
		cfg.Report.Table = true
	}
	setupLogger(cfg.Log)

	console := notify.NewConsoleWriter(stdout, cfg.Report.Top, cfg.Report.Table)

	var db *storage.SQLiteStorage
	if cfg.Storage.DSN != "" {
		db, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
		}
		defer db.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history > 0 || *show != "" {
		if db == nil {
			return fmt.Errorf("-history and -show need storage.dsn (or STORAGE_DSN)")
		}
		if *show != "" {
			return showRun(ctx, db, console, *show)
		}
		runs, err := db.ListRuns(ctx, *history)
		if err != nil {
			return err
		}
		return console.PrintRuns(runs)
	}

	schedMode, err := backtest.ParseMode(cfg.Backtest.Mode)
	if err != nil {
		return err
	}

	slog.Info("backtest starting",
		"config", *configPath,
		"data", cfg.Data.Path,
		"workers", cfg.Backtest.Workers,
		"mode", schedMode,
		"report", cfg.Report.Path,
	)

	var runs ports.RunStorage
	if db != nil {
		runs = db
	}

	btCfg := backtest.DefaultConfig()
	btCfg.Workers = cfg.Backtest.Workers
	btCfg.Mode = schedMode
	btCfg.Source = cfg.Data.Path

	svc := backtest.New(
		btCfg,
		archive.NewSource(cfg.Data.Path),
		strategy.NewMomentum(),
		runs,
		report.NewFile(cfg.Report.Path),
		console,
	)

	if _, _, err := svc.Run(ctx); err != nil {
		return fmt.Errorf("data %q: %w", cfg.Data.Path, err)
	}

	slog.Info("backtest finished", "report", cfg.Report.Path)
	return nil
}

// showRun imprime la cabecera de un run guardado y el value de sus instrumentos.
func showRun(ctx context.Context, db *storage.SQLiteStorage, console *notify.Console, id string) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	values, err := db.InstrumentValues(ctx, id)
	if err != nil {
		return err
	}
	trades, err := db.TradeCount(ctx, id)
	if err != nil {
		return err
	}
	return console.PrintRunDetail(run, values, trades)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
