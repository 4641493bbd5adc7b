package strategy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

// EntryRatio es la subida mínima en un minuto que dispara una entrada (+1%).
const EntryRatio = 1.01

// Momentum compra el minuto siguiente a una subida >= 1% y vende un minuto
// después. No lleva inventario: señales solapadas (t y t+1) generan trades
// independientes calculados sobre los precios originales.
type Momentum struct{}

var _ Strategy = (*Momentum)(nil)

// NewMomentum crea la estrategia con los umbrales fijos.
func NewMomentum() *Momentum {
	return &Momentum{}
}

// Name devuelve "momentum".
func (m *Momentum) Name() string {
	return "momentum"
}

// Evaluate implementa Strategy.
//
// Para cada minuto t con p(t+1)/p(t) >= EntryRatio y p(t+2) presente se
// registra Trade(buy=p(t+1)@t+1, sell=p(t+2)@t+2). Una señal sin minuto de
// salida se descarta. Los minutos se recorren en orden ascendente, así el
// orden de los trades y el producto del value son deterministas.
func (m *Momentum) Evaluate(ctx context.Context, series *domain.Series) (domain.InstrumentSummary, error) {
	key := series.Instrument.Key()
	summary := domain.InstrumentSummary{
		Key:        key,
		Instrument: series.Instrument,
		Value:      1.0,
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	minutes := series.Minutes()
	prices, err := parsePrices(series, minutes)
	if err != nil {
		return summary, err
	}

	successes := 0
	for _, t := range minutes {
		next, ok := prices[t+1]
		if !ok {
			continue
		}
		if next/prices[t] < EntryRatio {
			continue
		}
		exit, ok := prices[t+2]
		if !ok {
			continue
		}

		trade := domain.NewTrade(series.Instrument, t+1, next, t+2, exit)
		summary.Trades = append(summary.Trades, trade)
		summary.Value *= 1 + trade.Profit
		if trade.Profit >= 0 {
			successes++
		}
	}

	if len(summary.Trades) > 0 {
		summary.SuccessRatio = float64(successes) / float64(len(summary.Trades))
	}
	return summary, nil
}

// parsePrices convierte toda la serie a float64 antes de evaluar; el primer
// precio inválido aborta la evaluación del instrumento.
func parsePrices(series *domain.Series, minutes []int64) (map[int64]float64, error) {
	prices := make(map[int64]float64, len(minutes))
	for _, t := range minutes {
		raw := series.Prices[t]
		p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("strategy.Momentum: %s minute %d: %w: %q", series.Instrument.Key(), t, domain.ErrMalformedPrice, raw)
		}
		prices[t] = p
	}
	return prices, nil
}
