package market

import "time"

// Level 是订单簿中的一个价位档。
type Level struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int     `json:"orders,omitempty"`
}

// OrderBook 是某一时刻的 L2 订单簿快照。Bids 按价格从高到低排列，
// Asks 按价格从低到高排列，两侧均可能为空或被截断。
type OrderBook struct {
	Symbol        string    `json:"symbol"`
	Bids          []Level   `json:"bids"`
	Asks          []Level   `json:"asks"`
	LastTradedQty int64     `json:"last_traded_qty,omitempty"`
	TotalBuyQty   int64     `json:"total_buy_qty,omitempty"`
	TotalSellQty  int64     `json:"total_sell_qty,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// BestBid returns the top bid level, ok=false when the side is empty.
func (b *OrderBook) BestBid() (Level, bool) {
	if b == nil || len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level, ok=false when the side is empty.
func (b *OrderBook) BestAsk() (Level, bool) {
	if b == nil || len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// MidPrice 返回买一卖一中间价，任一侧为空时返回 0。
func (b *OrderBook) MidPrice() float64 {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return 0
	}
	return (bid.Price + ask.Price) / 2
}
