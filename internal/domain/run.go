package domain

import "time"

// Run es la cabecera de una ejecución del backtest.
type Run struct {
	ID         string
	Strategy   string
	Mode       string // batch | pool
	Workers    int
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time

	// Agregados del reporte, se rellenan con Complete.
	Instruments     int
	Trades          int
	AvgReturn       float64
	AvgSuccessRatio float64
}

// Complete copia los agregados del reporte a la cabecera del run.
func (r *Run) Complete(report FinalReport, finishedAt time.Time) {
	r.FinishedAt = finishedAt
	r.Instruments = report.Instruments()
	r.Trades = report.TradeCount()
	r.AvgReturn = report.AvgReturn
	r.AvgSuccessRatio = report.AvgSuccessRatio
}

// Duration devuelve cuánto tardó el run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
