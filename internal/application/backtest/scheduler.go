package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/domain/strategy"
)

// Mode selecciona cómo se reparte la evaluación entre goroutines.
type Mode string

const (
	// ModeBatch lanza una goroutine por instrumento en lotes de Workers y
	// espera a que termine el lote antes de empezar el siguiente.
	ModeBatch Mode = "batch"
	// ModePool mantiene Workers goroutines fijas consumiendo de una cola.
	ModePool Mode = "pool"
)

// DefaultWorkers es el ancho de concurrencia de referencia.
const DefaultWorkers = 8

// ParseMode valida el nombre de un modo.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBatch, ModePool:
		return Mode(s), nil
	case "":
		return ModeBatch, nil
	}
	return "", fmt.Errorf("backtest.ParseMode: unknown mode %q (want batch|pool)", s)
}

// Scheduler evalúa todos los instrumentos con como máximo Workers
// evaluaciones simultáneas y acumula los resúmenes en Totals.
type Scheduler struct {
	workers  int
	mode     Mode
	strategy strategy.Strategy
}

// NewScheduler crea un scheduler. Workers <= 0 usa DefaultWorkers.
func NewScheduler(cfg Config, s strategy.Strategy) *Scheduler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeBatch
	}
	return &Scheduler{workers: workers, mode: mode, strategy: s}
}

// Run evalúa cada instrumento del store exactamente una vez y devuelve el
// reporte final. El primer error de evaluación cancela el run completo.
func (s *Scheduler) Run(ctx context.Context, store *domain.SeriesStore) (domain.FinalReport, error) {
	start := time.Now()
	keys := store.Keys()
	totals := NewTotals(len(keys))

	slog.Info("backtest start",
		"strategy", s.strategy.Name(),
		"instruments", len(keys),
		"workers", s.workers,
		"mode", s.mode,
	)

	var err error
	switch s.mode {
	case ModePool:
		err = evaluatePool(ctx, s.strategy, store, keys, s.workers, totals)
	default:
		err = s.runBatches(ctx, store, keys, totals)
	}
	if err != nil {
		return domain.FinalReport{}, fmt.Errorf("backtest.Run: %w", err)
	}

	report := totals.Finalize()
	slog.Info("backtest end",
		"instruments", report.Instruments(),
		"trades", report.TradeCount(),
		"avg_return", report.AvgReturn,
		"avg_success_ratio", report.AvgSuccessRatio,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// runBatches corta las claves en lotes de s.workers. Cada lote corre una
// goroutine por instrumento; tras el join, los resultados se pliegan en
// totals en el orden del lote, sin concurrencia.
func (s *Scheduler) runBatches(ctx context.Context, store *domain.SeriesStore, keys []string, totals *Totals) error {
	for start := 0; start < len(keys); start += s.workers {
		end := min(start+s.workers, len(keys))
		batch := keys[start:end]
		results := make([]domain.InstrumentSummary, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, key := range batch {
			g.Go(func() error {
				slog.Debug("evaluating instrument", "instrument", key)
				summary, err := s.strategy.Evaluate(gctx, store.Series(key))
				if err != nil {
					return err
				}
				results[i] = summary
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, r := range results {
			totals.Add(r)
		}
	}
	return nil
}
