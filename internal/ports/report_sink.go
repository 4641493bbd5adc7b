package ports

import (
	"context"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

// ReportSink consume el reporte final de un backtest.
type ReportSink interface {
	// Write presenta o persiste el reporte. Solo se llama una vez por run,
	// con todos los instrumentos ya evaluados.
	Write(ctx context.Context, report domain.FinalReport) error
}
