package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/klinebt/internal/domain"
)

var testInstrument = domain.Instrument{Exchange: "binance", Base: "btc", Quote: "usdt"}

func makeSeries(prices map[int64]string) *domain.Series {
	return &domain.Series{Instrument: testInstrument, Prices: prices}
}

func TestMomentum_EntryAndExit(t *testing.T) {
	s := makeSeries(map[int64]string{10: "1.00", 11: "1.02", 12: "0.99"})

	sum, err := NewMomentum().Evaluate(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, sum.Trades, 1)
	tr := sum.Trades[0]
	assert.Equal(t, 1.02, tr.BuyPrice)
	assert.Equal(t, 0.99, tr.SellPrice)
	assert.Equal(t, int64(11), tr.BuyMinute)
	assert.Equal(t, int64(12), tr.SellMinute)
	assert.Equal(t, testInstrument, tr.Instrument)
	assert.InDelta(t, -0.0294, tr.Profit, 1e-4)
	assert.InDelta(t, 0.9706, sum.Value, 1e-4)
	assert.Equal(t, 0.0, sum.SuccessRatio)
	assert.Equal(t, "binance-btc-usdt", sum.Key)
}

func TestMomentum_NoSignalBelowThreshold(t *testing.T) {
	s := makeSeries(map[int64]string{5: "1.00", 6: "1.00"})

	sum, err := NewMomentum().Evaluate(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, sum.Trades)
	assert.Equal(t, 1.0, sum.Value)
	assert.Equal(t, 0.0, sum.SuccessRatio)
}

func TestMomentum_ExactThresholdFires(t *testing.T) {
	// 1.01/1.00 == EntryRatio en float64
	s := makeSeries(map[int64]string{0: "1.00", 1: "1.01", 2: "1.05"})

	sum, err := NewMomentum().Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, sum.Trades, 1)
	assert.Equal(t, 1.0, sum.SuccessRatio)
}

func TestMomentum_SignalWithoutExitDropped(t *testing.T) {
	s := makeSeries(map[int64]string{20: "1.00", 21: "1.10"})

	sum, err := NewMomentum().Evaluate(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, sum.Trades)
	assert.Equal(t, 1.0, sum.Value)
}

func TestMomentum_GapBreaksSignal(t *testing.T) {
	// 31 no existe: no hay p(t+1) para t=30
	s := makeSeries(map[int64]string{30: "1.00", 32: "2.00", 33: "2.00"})

	sum, err := NewMomentum().Evaluate(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, sum.Trades)
}

func TestMomentum_OverlappingSignals(t *testing.T) {
	// t=0 y t=1 disparan; cada trade usa los precios originales
	s := makeSeries(map[int64]string{0: "1.00", 1: "1.02", 2: "1.04", 3: "1.00"})

	sum, err := NewMomentum().Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, sum.Trades, 2)

	assert.Equal(t, int64(1), sum.Trades[0].BuyMinute)
	assert.Equal(t, int64(2), sum.Trades[0].SellMinute)
	assert.Equal(t, int64(2), sum.Trades[1].BuyMinute)
	assert.Equal(t, int64(3), sum.Trades[1].SellMinute)

	assert.Equal(t, 0.5, sum.SuccessRatio)
	want := (1 + sum.Trades[0].Profit) * (1 + sum.Trades[1].Profit)
	assert.InDelta(t, want, sum.Value, 1e-15)
}

func TestMomentum_ValueIsProductOfTrades(t *testing.T) {
	prices := map[int64]string{}
	// Serie en diente de sierra: sube 2% cada 3 minutos
	for m := int64(0); m < 60; m++ {
		switch m % 3 {
		case 0:
			prices[m] = "100"
		case 1:
			prices[m] = "102"
		case 2:
			prices[m] = "101"
		}
	}

	sum, err := NewMomentum().Evaluate(context.Background(), makeSeries(prices))
	require.NoError(t, err)
	require.NotEmpty(t, sum.Trades)

	product := 1.0
	successes := 0
	for _, tr := range sum.Trades {
		product *= 1 + tr.Profit
		if tr.Profit >= 0 {
			successes++
		}
	}
	assert.Equal(t, product, sum.Value)
	assert.Equal(t, float64(successes)/float64(len(sum.Trades)), sum.SuccessRatio)
}

func TestMomentum_TradesInMinuteOrder(t *testing.T) {
	s := makeSeries(map[int64]string{
		50: "1", 51: "2", 52: "2",
		10: "1", 11: "2", 12: "2",
		30: "1", 31: "2", 32: "2",
	})

	sum, err := NewMomentum().Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, sum.Trades, 3)
	assert.Equal(t, int64(11), sum.Trades[0].BuyMinute)
	assert.Equal(t, int64(31), sum.Trades[1].BuyMinute)
	assert.Equal(t, int64(51), sum.Trades[2].BuyMinute)
}

func TestMomentum_MalformedPrice(t *testing.T) {
	s := makeSeries(map[int64]string{1: "1.00", 2: "n/a"})

	_, err := NewMomentum().Evaluate(context.Background(), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedPrice))
	assert.Contains(t, err.Error(), "binance-btc-usdt")
	assert.Contains(t, err.Error(), "minute 2")
}

func TestMomentum_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMomentum().Evaluate(ctx, makeSeries(map[int64]string{1: "1"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMomentum_Name(t *testing.T) {
	assert.Equal(t, "momentum", NewMomentum().Name())
}
