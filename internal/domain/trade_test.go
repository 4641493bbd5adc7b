package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var btc = Instrument{Exchange: "binance", Base: "btc", Quote: "usdt"}

func TestNewTrade_Profit(t *testing.T) {
	tr := NewTrade(btc, 11, 1.02, 12, 0.99)
	assert.InDelta(t, 0.99/1.02-1, tr.Profit, 1e-15)
	assert.Equal(t, int64(11), tr.BuyMinute)
	assert.Equal(t, int64(12), tr.SellMinute)
}

func TestTrade_Line(t *testing.T) {
	tr := NewTrade(btc, 11, 1.02, 12, 0.99)
	assert.Equal(t,
		"buy_price:1.02\tsell_price:0.99\tbuy_time:11\tsell_time:12\texchange_id:binance\tpre_coin:btc\tpost_coin:usdt\tprofit:-2.941%",
		tr.Line())
}

func TestInstrumentSummary_Line(t *testing.T) {
	s := InstrumentSummary{
		Key:          btc.Key(),
		Instrument:   btc,
		Trades:       []Trade{NewTrade(btc, 1, 1, 2, 1.5), NewTrade(btc, 3, 2, 4, 1)},
		Value:        0.75,
		SuccessRatio: 0.5,
	}
	assert.Equal(t, "deal_type:binance-btc-usdt npv:0.75 deal_cnt:2 suc_ratio:0.5", s.Line())
	assert.Equal(t, 1, s.Successes())
}

func TestFinalReport_Traded(t *testing.T) {
	r := FinalReport{Summaries: []InstrumentSummary{
		{Key: "a", Trades: []Trade{{}}},
		{Key: "b"},
		{Key: "c", Trades: []Trade{{}, {}}},
	}}
	traded := r.Traded()
	assert.Len(t, traded, 2)
	assert.Equal(t, "a", traded[0].Key)
	assert.Equal(t, "c", traded[1].Key)
	assert.Equal(t, 3, r.Instruments())
	assert.Equal(t, 3, r.TradeCount())
}

func TestRun_Complete(t *testing.T) {
	start := time.Date(2021, 6, 24, 0, 0, 0, 0, time.UTC)
	run := Run{ID: "r", StartedAt: start}
	assert.Zero(t, run.Duration())

	report := FinalReport{
		Summaries:       []InstrumentSummary{{Key: "a", Trades: []Trade{{}}}, {Key: "b"}},
		AvgReturn:       0.02,
		AvgSuccessRatio: 0.5,
	}
	run.Complete(report, start.Add(time.Minute))

	assert.Equal(t, 2, run.Instruments)
	assert.Equal(t, 1, run.Trades)
	assert.Equal(t, 0.02, run.AvgReturn)
	assert.Equal(t, time.Minute, run.Duration())
}
