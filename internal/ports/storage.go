package ports

import (
	"context"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

// RunStorage guarda el histórico de runs de backtest.
type RunStorage interface {
	// SaveRun persiste el reporte completo bajo el id del run.
	SaveRun(ctx context.Context, run domain.Run, report domain.FinalReport) error

	// GetRun devuelve la cabecera de un run guardado.
	GetRun(ctx context.Context, id string) (domain.Run, error)

	// ListRuns devuelve los últimos runs, el más reciente primero.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
