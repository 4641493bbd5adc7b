package domain

import (
	"fmt"
	"strconv"
)

// Trade es una compra/venta simulada por la estrategia.
// Los minutos se cuentan desde EpochMillis.
type Trade struct {
	Instrument Instrument
	BuyPrice   float64
	SellPrice  float64
	BuyMinute  int64
	SellMinute int64
	Profit     float64 // sell/buy - 1
}

// NewTrade crea un trade y calcula su profit.
func NewTrade(inst Instrument, buyMinute int64, buyPrice float64, sellMinute int64, sellPrice float64) Trade {
	return Trade{
		Instrument: inst,
		BuyPrice:   buyPrice,
		SellPrice:  sellPrice,
		BuyMinute:  buyMinute,
		SellMinute: sellMinute,
		Profit:     sellPrice/buyPrice - 1,
	}
}

// Line renderiza el trade como una línea separada por tabuladores con el
// profit en porcentaje y 3 decimales. Los minutos salen como buy_time y
// sell_time, igual que en los result.data ya existentes.
func (t Trade) Line() string {
	return fmt.Sprintf("buy_price:%s\tsell_price:%s\tbuy_time:%d\tsell_time:%d\texchange_id:%s\tpre_coin:%s\tpost_coin:%s\tprofit:%.3f%%",
		FormatFloat(t.BuyPrice), FormatFloat(t.SellPrice),
		t.BuyMinute, t.SellMinute,
		t.Instrument.Exchange, t.Instrument.Base, t.Instrument.Quote,
		t.Profit*100,
	)
}

// InstrumentSummary es el resultado del backtest de un instrumento.
type InstrumentSummary struct {
	Key          string
	Instrument   Instrument
	Trades       []Trade // en orden de creación
	Value        float64 // producto de (1+profit), 1.0 sin trades
	SuccessRatio float64 // trades con profit >= 0 / total, 0.0 sin trades
}

// Successes devuelve cuántos trades terminaron con profit no negativo.
func (s InstrumentSummary) Successes() int {
	n := 0
	for _, t := range s.Trades {
		if t.Profit >= 0 {
			n++
		}
	}
	return n
}

// Line renderiza el resumen de una línea del instrumento:
// deal_type es la clave, npv el value y deal_cnt el número de trades.
func (s InstrumentSummary) Line() string {
	return fmt.Sprintf("deal_type:%s npv:%s deal_cnt:%d suc_ratio:%s",
		s.Key, FormatFloat(s.Value), len(s.Trades), FormatFloat(s.SuccessRatio))
}

// FinalReport agrega todos los resúmenes de un run.
type FinalReport struct {
	Summaries       []InstrumentSummary
	AvgReturn       float64 // media(value) - 1
	AvgSuccessRatio float64
}

// Instruments devuelve cuántos instrumentos se procesaron.
func (r FinalReport) Instruments() int {
	return len(r.Summaries)
}

// Traded devuelve los resúmenes con al menos un trade, en el orden del reporte.
func (r FinalReport) Traded() []InstrumentSummary {
	var out []InstrumentSummary
	for _, s := range r.Summaries {
		if len(s.Trades) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// TradeCount devuelve el total de trades del reporte.
func (r FinalReport) TradeCount() int {
	n := 0
	for _, s := range r.Summaries {
		n += len(s.Trades)
	}
	return n
}

// FormatFloat usa la representación más corta que preserva el valor.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
