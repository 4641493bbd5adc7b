package backtest

// pool.go: worker pool para evaluar instrumentos en paralelo.
//
// Workers goroutines fijas consumen claves de workCh; cada resumen viaja por
// resultCh hasta un único acumulador (el caller), así Totals solo tiene un
// escritor aunque la evaluación sea concurrente.

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/domain/strategy"
)

// evaluatePool evalúa todas las claves con un pool de workers persistentes.
// El primer error cancela el contexto de los demás workers y se devuelve
// cuando todos han salido.
func evaluatePool(
	ctx context.Context,
	strat strategy.Strategy,
	store *domain.SeriesStore,
	keys []string,
	workers int,
	totals *Totals,
) error {
	workCh := make(chan string, len(keys))
	for _, key := range keys {
		workCh <- key
	}
	close(workCh)

	resultCh := make(chan domain.InstrumentSummary, workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for key := range workCh {
				if err := gctx.Err(); err != nil {
					return err
				}
				summary, err := strat.Evaluate(gctx, store.Series(key))
				if err != nil {
					return err
				}
				select {
				case resultCh <- summary:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Cerrar resultCh cuando todos los workers terminen.
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(resultCh)
	}()

	collected := 0
	for summary := range resultCh {
		totals.Add(summary)
		collected++
	}

	err := <-done
	slog.Debug("pool evaluation complete",
		"queued", len(keys),
		"collected", collected,
		"workers", workers,
	)
	return err
}
