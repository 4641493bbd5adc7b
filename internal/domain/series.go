package domain

import (
	"fmt"
	"sort"
)

// Instrument identifica un par exchange/base/quote.
type Instrument struct {
	Exchange string
	Base     string
	Quote    string
}

// Key devuelve el identificador compuesto "exchange-base-quote".
func (i Instrument) Key() string {
	return fmt.Sprintf("%s-%s-%s", i.Exchange, i.Base, i.Quote)
}

// Series es la serie de precios por minuto de un instrumento.
// Tras la ingesta es de solo lectura y se comparte sin locks.
type Series struct {
	Instrument Instrument
	Prices     map[int64]string // minuto desde el epoch → precio en texto
}

// Price devuelve el precio en texto del minuto dado.
func (s *Series) Price(minute int64) (string, bool) {
	p, ok := s.Prices[minute]
	return p, ok
}

// Minutes devuelve los offsets presentes en orden ascendente.
func (s *Series) Minutes() []int64 {
	minutes := make([]int64, 0, len(s.Prices))
	for m := range s.Prices {
		minutes = append(minutes, m)
	}
	sort.Slice(minutes, func(i, j int) bool { return minutes[i] < minutes[j] })
	return minutes
}

// SeriesStore agrupa las series por clave de instrumento.
// No es seguro para escrituras concurrentes: se llena en la ingesta y
// después solo se lee.
type SeriesStore struct {
	series map[string]*Series
	points int
}

// NewSeriesStore crea un store vacío.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{series: make(map[string]*Series)}
}

// Add inserta el precio del record en la serie de su instrumento, creando la
// serie la primera vez que aparece la clave. Un minuto repetido se
// sobreescribe con el último valor.
func (s *SeriesStore) Add(r Record) {
	key := r.Instrument.Key()
	series, ok := s.series[key]
	if !ok {
		series = &Series{Instrument: r.Instrument, Prices: make(map[int64]string)}
		s.series[key] = series
	}
	minute := r.Offset()
	if _, dup := series.Prices[minute]; !dup {
		s.points++
	}
	series.Prices[minute] = r.Price
}

// Series devuelve la serie de la clave dada, o nil si no existe.
func (s *SeriesStore) Series(key string) *Series {
	return s.series[key]
}

// Keys devuelve las claves de los instrumentos ordenadas.
func (s *SeriesStore) Keys() []string {
	keys := make([]string, 0, len(s.series))
	for k := range s.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len devuelve el número de instrumentos.
func (s *SeriesStore) Len() int {
	return len(s.series)
}

// Points devuelve el número de minutos distintos sumando todas las series.
func (s *SeriesStore) Points() int {
	return s.points
}
