package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// EpochMillis es el instante base de los offsets: 2021-06-23 00:00:00 UTC.
	EpochMillis int64 = 1624377600000
	// MillisPerMinute convierte milisegundos a minutos enteros.
	MillisPerMinute int64 = 60000
)

// Posiciones de los campos que se consumen de cada línea del archivo.
const (
	fieldExchange = 2
	fieldBase     = 3
	fieldQuote    = 4
	fieldMillis   = 5
	fieldPrice    = 9

	minFields = 10
)

// Record es una línea de kline ya separada en los campos que usa el backtest.
type Record struct {
	Instrument Instrument
	Millis     int64
	Price      string // texto tal cual viene del archivo, se parsea al evaluar
}

// ParseRecord separa una línea por tabuladores y extrae exchange, monedas,
// timestamp y precio. Líneas con menos de 10 campos o timestamp no numérico
// devuelven ErrMalformedRecord.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return Record{}, fmt.Errorf("%w: %d fields, want at least %d", ErrMalformedRecord, len(fields), minFields)
	}

	millis, err := strconv.ParseInt(strings.TrimSpace(fields[fieldMillis]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedRecord, fields[fieldMillis], err)
	}

	return Record{
		Instrument: Instrument{
			Exchange: fields[fieldExchange],
			Base:     fields[fieldBase],
			Quote:    fields[fieldQuote],
		},
		Millis: millis,
		Price:  fields[fieldPrice],
	}, nil
}

// Offset devuelve el minuto del record relativo al epoch.
func (r Record) Offset() int64 {
	return MinuteOffset(r.Millis)
}

// MinuteOffset convierte milisegundos absolutos al número de minutos enteros
// desde EpochMillis. La división trunca hacia cero.
func MinuteOffset(millis int64) int64 {
	return (millis - EpochMillis) / MillisPerMinute
}
