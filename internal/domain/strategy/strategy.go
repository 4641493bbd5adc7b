package strategy

import (
	"context"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

// Strategy define el contrato para evaluar la serie de un instrumento.
// Cada estrategia encapsula una lógica de trading diferente.
type Strategy interface {
	// Name devuelve el identificador de la estrategia.
	Name() string

	// Evaluate recorre la serie y devuelve el resumen con los trades simulados.
	// La serie es de solo lectura y puede compartirse entre goroutines.
	// Devuelve error si algún precio de la serie no es numérico.
	Evaluate(ctx context.Context, series *domain.Series) (domain.InstrumentSummary, error)
}
