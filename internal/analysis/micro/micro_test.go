package micro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"argus/internal/market"
)

func makeBook(bids, asks []market.Level) *market.OrderBook {
	return &market.OrderBook{Symbol: "TEST", Bids: bids, Asks: asks}
}

func TestImbalanceEmptySideIsNeutral(t *testing.T) {
	assert.Equal(t, 1.0, Imbalance(nil, 3))
	assert.Equal(t, 1.0, Imbalance(makeBook(nil, []market.Level{{Price: 100, Quantity: 500}}), 3))
	assert.Equal(t, 1.0, Imbalance(makeBook([]market.Level{{Price: 99, Quantity: 500}}, nil), 3))
}

func TestImbalanceRatio(t *testing.T) {
	book := makeBook(
		[]market.Level{{Price: 99.95, Quantity: 1000}, {Price: 99.90, Quantity: 1000}, {Price: 99.85, Quantity: 1000}},
		[]market.Level{{Price: 100.00, Quantity: 400}, {Price: 100.05, Quantity: 300}, {Price: 100.10, Quantity: 300}},
	)
	assert.InDelta(t, 3.0, Imbalance(book, 3), 1e-9)

	// 只统计前 N 档
	book.Bids = append(book.Bids, market.Level{Price: 99.80, Quantity: 100000})
	assert.InDelta(t, 3.0, Imbalance(book, 3), 1e-9)
}

func TestImbalanceZeroAskVolume(t *testing.T) {
	book := makeBook(
		[]market.Level{{Price: 99.95, Quantity: 1000}},
		[]market.Level{{Price: 100.00, Quantity: 0}},
	)
	assert.True(t, math.IsInf(Imbalance(book, 3), 1))
}

func TestSpreadBps(t *testing.T) {
	book := makeBook(
		[]market.Level{{Price: 99.95, Quantity: 100}},
		[]market.Level{{Price: 100.05, Quantity: 100}},
	)
	assert.InDelta(t, 10.0, SpreadBps(book), 1e-6)
	assert.Equal(t, 0.0, SpreadBps(makeBook(nil, nil)))
}

func TestSupportResistanceTopFiveInBookOrder(t *testing.T) {
	var bids []market.Level
	for i := 0; i < 8; i++ {
		bids = append(bids, market.Level{Price: 100 - float64(i)*0.05, Quantity: 600})
	}
	asks := []market.Level{
		{Price: 100.05, Quantity: 100},
		{Price: 100.10, Quantity: 900},
		{Price: 100.15, Quantity: 450},
	}
	support, resistance := SupportResistance(makeBook(bids, asks), 500)
	assert.Len(t, support, 5)
	assert.Equal(t, 100.0, support[0].Price)
	assert.Len(t, resistance, 1)
	assert.Equal(t, 100.10, resistance[0].Price)
}

func TestCheckConditionsAllPass(t *testing.T) {
	book := makeBook(
		[]market.Level{{Price: 99.95, Quantity: 800}, {Price: 99.90, Quantity: 700}, {Price: 99.85, Quantity: 600}},
		[]market.Level{{Price: 100.05, Quantity: 300}, {Price: 100.10, Quantity: 300}, {Price: 100.15, Quantity: 200}},
	)
	book.LastTradedQty = 1500

	cond := CheckConditions(book, ConditionThresholds{})
	assert.True(t, cond.AdequateSpread)
	assert.True(t, cond.SufficientVolume)
	assert.True(t, cond.StableBook)
	assert.True(t, cond.GoodImbalance)
	assert.True(t, cond.ActiveTrading)
	assert.True(t, cond.Suitable())
}

func TestCheckConditionsAnyFailureBlocks(t *testing.T) {
	book := makeBook(
		[]market.Level{{Price: 99.95, Quantity: 800}, {Price: 99.90, Quantity: 700}, {Price: 99.85, Quantity: 600}},
		[]market.Level{{Price: 100.05, Quantity: 300}, {Price: 100.10, Quantity: 300}, {Price: 100.15, Quantity: 200}},
	)
	book.LastTradedQty = 10 // 不活跃

	cond := CheckConditions(book, ConditionThresholds{})
	assert.False(t, cond.ActiveTrading)
	assert.False(t, cond.Suitable())
}

func TestCheckConditionsNilBook(t *testing.T) {
	cond := CheckConditions(nil, ConditionThresholds{})
	assert.False(t, cond.Suitable())
}
