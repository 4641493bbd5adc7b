package backtest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

// sliceSource es un ports.RecordSource en memoria.
type sliceSource struct {
	name  string
	lines []string
	err   error
}

func (s *sliceSource) Each(ctx context.Context, fn func(origin, line string) error) error {
	if s.err != nil {
		return s.err
	}
	for i, l := range s.lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(fmt.Sprintf("%s:%d", s.name, i+1), l); err != nil {
			return err
		}
	}
	return nil
}

func klineLine(exchange, base, quote string, minute int64, price string) string {
	millis := domain.EpochMillis + minute*domain.MillisPerMinute
	return strings.Join([]string{"id", "1m", exchange, base, quote, strconv.FormatInt(millis, 10), "o", "h", "l", price}, "\t")
}

// buildStore crea n instrumentos con series distintas para que cada uno
// tenga un value diferente.
func buildStore(n int) *domain.SeriesStore {
	store := domain.NewSeriesStore()
	for i := 0; i < n; i++ {
		inst := domain.Instrument{Exchange: "ex" + strconv.Itoa(i%3), Base: fmt.Sprintf("c%03d", i), Quote: "usdt"}
		for m := int64(0); m < 90; m++ {
			p := 100.0
			switch m % 3 {
			case 1:
				p = 102 + float64(i%5)*0.1
			case 2:
				p = 101 + float64(i%7)*0.3
			}
			store.Add(domain.Record{
				Instrument: inst,
				Millis:     domain.EpochMillis + m*domain.MillisPerMinute,
				Price:      strconv.FormatFloat(p, 'f', -1, 64),
			})
		}
	}
	return store
}

// trackingStrategy cuenta evaluaciones y la concurrencia máxima observada.
type trackingStrategy struct {
	delay    time.Duration
	failKey  string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	mu       sync.Mutex
	calls    map[string]int
}

func newTrackingStrategy(delay time.Duration) *trackingStrategy {
	return &trackingStrategy{delay: delay, calls: make(map[string]int)}
}

func (s *trackingStrategy) Name() string { return "tracking" }

func (s *trackingStrategy) Evaluate(ctx context.Context, series *domain.Series) (domain.InstrumentSummary, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxSeen.Load()
		if n <= cur || s.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	key := series.Instrument.Key()
	s.mu.Lock()
	s.calls[key]++
	s.mu.Unlock()

	if key == s.failKey {
		return domain.InstrumentSummary{}, fmt.Errorf("boom %s: %w", key, domain.ErrMalformedPrice)
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return domain.InstrumentSummary{}, ctx.Err()
	}
	return domain.InstrumentSummary{Key: key, Instrument: series.Instrument, Value: 1.0}, nil
}

func (s *trackingStrategy) callCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.calls))
	for k, v := range s.calls {
		out[k] = v
	}
	return out
}

// fixedValueStrategy devuelve el value configurado por clave (1.0 por
// defecto) tras el retardo configurado.
type fixedValueStrategy struct {
	values map[string]float64
	delays map[string]time.Duration
}

func (s *fixedValueStrategy) Name() string { return "fixed" }

func (s *fixedValueStrategy) Evaluate(ctx context.Context, series *domain.Series) (domain.InstrumentSummary, error) {
	key := series.Instrument.Key()
	if d, ok := s.delays[key]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return domain.InstrumentSummary{}, ctx.Err()
		}
	}
	value, ok := s.values[key]
	if !ok {
		value = 1.0
	}
	return domain.InstrumentSummary{Key: key, Instrument: series.Instrument, Value: value, SuccessRatio: 0.1}, nil
}
