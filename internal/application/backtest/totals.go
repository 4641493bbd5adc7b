package backtest

import (
	"math"
	"sort"
	"sync"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

// Totals acumula los resúmenes de cada instrumento. Las sumas se calculan en
// Finalize sobre los resúmenes ordenados por clave, así el reporte es el
// mismo bit a bit sea cual sea el orden en que terminan las evaluaciones.
// Es seguro para uso concurrente.
type Totals struct {
	mu        sync.Mutex
	summaries []domain.InstrumentSummary
}

// NewTotals crea un acumulador con capacidad para n instrumentos.
func NewTotals(n int) *Totals {
	return &Totals{summaries: make([]domain.InstrumentSummary, 0, n)}
}

// Add registra el resumen de un instrumento.
func (t *Totals) Add(s domain.InstrumentSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summaries = append(t.summaries, s)
}

// Count devuelve cuántos resúmenes se han acumulado.
func (t *Totals) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.summaries)
}

// Finalize construye el reporte final:
//
//	avg_return        = value_sum / count - 1
//	avg_success_ratio = success_sum / count
//
// Las sumas recorren los resúmenes en orden de clave. Los success ratio NaN
// no suman pero el instrumento cuenta en count. Sin instrumentos ambos
// promedios valen 0.
func (t *Totals) Finalize() domain.FinalReport {
	t.mu.Lock()
	summaries := make([]domain.InstrumentSummary, len(t.summaries))
	copy(summaries, t.summaries)
	t.mu.Unlock()

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Key < summaries[j].Key })

	report := domain.FinalReport{Summaries: summaries}
	if len(summaries) == 0 {
		return report
	}

	var valueSum, successSum float64
	for _, s := range summaries {
		valueSum += s.Value
		if !math.IsNaN(s.SuccessRatio) {
			successSum += s.SuccessRatio
		}
	}
	n := float64(len(summaries))
	report.AvgReturn = valueSum/n - 1.0
	report.AvgSuccessRatio = successSum / n
	return report
}
