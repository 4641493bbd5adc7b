package notify_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/klinebt/internal/adapters/notify"
	"github.com/alejandrodnm/klinebt/internal/domain"
)

func TestConsole_PrintRuns(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, 0, false)

	started := time.Date(2021, 6, 24, 8, 0, 0, 0, time.UTC)
	runs := []domain.Run{
		{ID: "run-new", Mode: "pool", Workers: 8, StartedAt: started.Add(time.Hour), FinishedAt: started.Add(time.Hour + 2*time.Second), Instruments: 12, Trades: 40, AvgReturn: 0.0123},
		{ID: "run-old", Mode: "batch", Workers: 1, StartedAt: started, FinishedAt: started.Add(time.Second), Instruments: 12, Trades: 40},
	}
	require.NoError(t, c.PrintRuns(runs))

	out := buf.String()
	assert.Contains(t, out, "run-new")
	assert.Contains(t, out, "run-old")
	assert.Contains(t, out, "2021-06-24T09:00:00")
	assert.Contains(t, out, "+1.2300%")
	assert.Less(t, strings.Index(out, "run-new"), strings.Index(out, "run-old"))
}

func TestConsole_PrintRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notify.NewConsoleWriter(&buf, 0, false).PrintRuns(nil))
	assert.Contains(t, buf.String(), "no runs stored")
}

func TestConsole_PrintRunDetail(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, 2, false)

	run := domain.Run{ID: "run-1", Strategy: "momentum", Mode: "batch", Workers: 8, Instruments: 3}
	values := map[string]float64{
		"binance-btc-usdt": 1.05,
		"okex-eth-usdt":    0.97,
		"huobi-sol-usdt":   1.10,
	}
	require.NoError(t, c.PrintRunDetail(run, values, 7))

	out := buf.String()
	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "trades:7")
	assert.Contains(t, out, "huobi-sol-usdt")
	assert.Contains(t, out, "binance-btc-usdt")
	assert.NotContains(t, out, "okex-eth-usdt") // fuera del top 2
	assert.Less(t, strings.Index(out, "huobi-sol-usdt"), strings.Index(out, "binance-btc-usdt"))
}
