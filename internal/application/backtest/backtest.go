package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/domain/strategy"
	"github.com/alejandrodnm/klinebt/internal/ports"
)

// Config contiene la configuración de un run.
type Config struct {
	Workers int    // evaluaciones simultáneas como máximo (0 = DefaultWorkers)
	Mode    Mode   // batch | pool
	Source  string // etiqueta del origen de datos, solo para el histórico
}

// DefaultConfig devuelve la configuración de referencia: 8 workers en lotes.
func DefaultConfig() Config {
	return Config{Workers: DefaultWorkers, Mode: ModeBatch}
}

// Service es el orquestador: ingesta → evaluación → sinks.
type Service struct {
	cfg      Config
	source   ports.RecordSource
	strategy strategy.Strategy
	runs     ports.RunStorage // opcional
	sinks    []ports.ReportSink
}

// New crea un Service con todas las dependencias inyectadas.
// La strategy se inyecta desde fuera (cmd/) para respetar la inversión de dependencias.
// runs puede ser nil si no se guarda histórico.
func New(
	cfg Config,
	source ports.RecordSource,
	strat strategy.Strategy,
	runs ports.RunStorage,
	sinks ...ports.ReportSink,
) *Service {
	return &Service{
		cfg:      cfg,
		source:   source,
		strategy: strat,
		runs:     runs,
		sinks:    sinks,
	}
}

// Run ejecuta el backtest completo y entrega el reporte a cada sink.
// Cualquier error de ingesta, evaluación o sink es fatal para el run.
func (s *Service) Run(ctx context.Context) (domain.Run, domain.FinalReport, error) {
	sched := NewScheduler(s.cfg, s.strategy)
	run := domain.Run{
		ID:        uuid.NewString(),
		Strategy:  s.strategy.Name(),
		Mode:      string(sched.mode),
		Workers:   sched.workers,
		Source:    s.cfg.Source,
		StartedAt: time.Now().UTC(),
	}
	slog.Info("run starting", "run_id", run.ID, "source", run.Source)

	store, err := Ingest(ctx, s.source)
	if err != nil {
		return run, domain.FinalReport{}, err
	}

	report, err := sched.Run(ctx, store)
	if err != nil {
		return run, domain.FinalReport{}, err
	}
	run.Complete(report, time.Now().UTC())

	for _, sink := range s.sinks {
		if err := sink.Write(ctx, report); err != nil {
			return run, report, fmt.Errorf("backtest.Service: write report: %w", err)
		}
	}

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, run, report); err != nil {
			slog.Warn("storage error", "run_id", run.ID, "err", err)
		}
	}

	slog.Info("run complete",
		"run_id", run.ID,
		"instruments", run.Instruments,
		"trades", run.Trades,
		"duration", run.Duration().Round(time.Millisecond),
	)
	return run, report, nil
}
