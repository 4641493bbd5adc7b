package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/ports"
)

const progressInterval = 5 * time.Second

// Ingest lee todas las líneas del source y construye el store de series.
// Las líneas vacías se ignoran; cualquier línea mal formada aborta la
// ingesta con un error que nombra su origen.
func Ingest(ctx context.Context, src ports.RecordSource) (*domain.SeriesStore, error) {
	start := time.Now()
	store := domain.NewSeriesStore()
	progress := rate.Sometimes{Interval: progressInterval}

	records := 0
	err := src.Each(ctx, func(origin, line string) error {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			return nil
		}
		rec, err := domain.ParseRecord(line)
		if err != nil {
			return fmt.Errorf("%s: %w", origin, err)
		}
		store.Add(rec)
		records++

		progress.Do(func() {
			slog.Info("ingesting klines",
				"records", records,
				"instruments", store.Len(),
				"at", origin,
			)
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("backtest.Ingest: %w", err)
	}

	slog.Info("ingest complete",
		"records", records,
		"instruments", store.Len(),
		"minutes", store.Points(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return store, nil
}
