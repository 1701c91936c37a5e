// Package micro computes order-book microstructure features: bid/ask
// imbalance, spread, support/resistance levels and scalping suitability.
// All functions are total over malformed books; they degrade to neutral
// values instead of panicking.
package micro

import (
	"math"

	"argus/internal/market"
)

// Imbalance 返回前 levels 档买量与卖量之比。任一侧为空返回中性值 1.0；
// 卖量为 0 而买量非 0 返回 +Inf。
func Imbalance(book *market.OrderBook, levels int) float64 {
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return 1.0
	}
	if levels <= 0 {
		levels = 3
	}
	var bidVol, askVol int64
	for i := 0; i < levels && i < len(book.Bids); i++ {
		bidVol += book.Bids[i].Quantity
	}
	for i := 0; i < levels && i < len(book.Asks); i++ {
		askVol += book.Asks[i].Quantity
	}
	if askVol == 0 {
		if bidVol == 0 {
			return 1.0
		}
		return math.Inf(1)
	}
	return float64(bidVol) / float64(askVol)
}

// SpreadBps 返回买卖价差（基点）。中间价为 0 时返回 0。
func SpreadBps(book *market.OrderBook) float64 {
	bid, okB := book.BestBid()
	ask, okA := book.BestAsk()
	if !okB || !okA {
		return 0
	}
	mid := (bid.Price + ask.Price) / 2
	if mid == 0 {
		return 0
	}
	return (ask.Price - bid.Price) / mid * 10000
}

// SupportResistance 找出挂单量不低于 minVolume 的支撑（买侧）与阻力
// （卖侧）价位，各取离最优价最近的前 5 档，保持订单簿原有顺序。
func SupportResistance(book *market.OrderBook, minVolume int64) (support, resistance []market.Level) {
	if book == nil {
		return nil, nil
	}
	for _, lvl := range book.Bids {
		if lvl.Quantity >= minVolume {
			support = append(support, lvl)
			if len(support) == 5 {
				break
			}
		}
	}
	for _, lvl := range book.Asks {
		if lvl.Quantity >= minVolume {
			resistance = append(resistance, lvl)
			if len(resistance) == 5 {
				break
			}
		}
	}
	return support, resistance
}

// Conditions 是剥头皮适用性检查的五个独立判据。
type Conditions struct {
	AdequateSpread   bool `json:"adequate_spread"`
	SufficientVolume bool `json:"sufficient_volume"`
	StableBook       bool `json:"stable_book"`
	GoodImbalance    bool `json:"good_imbalance"`
	ActiveTrading    bool `json:"active_trading"`
}

// Suitable reports whether every condition holds.
func (c Conditions) Suitable() bool {
	return c.AdequateSpread && c.SufficientVolume && c.StableBook && c.GoodImbalance && c.ActiveTrading
}

// ConditionThresholds 控制各判据的阈值，零值字段回退到内置默认。
type ConditionThresholds struct {
	MinSpreadBps   float64
	MaxSpreadBps   float64
	MinBestVolume  int64
	MinDepthLevels int
	MinImbalance   float64
	MinTradeVolume int64
}

func (t *ConditionThresholds) normalize() {
	if t.MinSpreadBps <= 0 {
		t.MinSpreadBps = 5
	}
	if t.MaxSpreadBps <= 0 {
		t.MaxSpreadBps = 50
	}
	if t.MinBestVolume <= 0 {
		t.MinBestVolume = 500
	}
	if t.MinDepthLevels <= 0 {
		t.MinDepthLevels = 3
	}
	if t.MinImbalance <= 0 {
		t.MinImbalance = 1.5
	}
	if t.MinTradeVolume <= 0 {
		t.MinTradeVolume = 1000
	}
}

// CheckConditions 对订单簿做剥头皮适用性检查。数据缺失的判据保持 false，
// 绝不报错。
func CheckConditions(book *market.OrderBook, th ConditionThresholds) Conditions {
	th.normalize()
	var out Conditions
	if book == nil {
		return out
	}

	bid, okB := book.BestBid()
	ask, okA := book.BestAsk()
	if okB && okA {
		spread := SpreadBps(book)
		out.AdequateSpread = spread >= th.MinSpreadBps && spread <= th.MaxSpreadBps
		out.SufficientVolume = bid.Quantity+ask.Quantity >= th.MinBestVolume
	}
	out.StableBook = len(book.Bids) >= th.MinDepthLevels && len(book.Asks) >= th.MinDepthLevels

	ratio := Imbalance(book, th.MinDepthLevels)
	if !math.IsNaN(ratio) {
		out.GoodImbalance = ratio >= th.MinImbalance || (ratio > 0 && ratio <= 1/th.MinImbalance)
	}
	out.ActiveTrading = book.LastTradedQty >= th.MinTradeVolume
	return out
}
