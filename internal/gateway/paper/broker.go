// Package paper 实现进程内模拟券商：市价单即时成交，括号腿与止损单挂起，
// 随行情标价触发，OCO 成对撤销。资金账本用 decimal 精确记账。
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"argus/internal/gateway/exchange"
	"argus/internal/logger"
)

// QuoteFunc 按需拉取最新成交价。返回 0 表示暂无行情。
type QuoteFunc func(ctx context.Context, symbol string) float64

type netPosition struct {
	quantity int64
	avgPrice float64
}

// restingOrder 是等待触发的止损/止盈腿。
type restingOrder struct {
	index   int // orders 切片下标
	symbol  string
	side    exchange.Side
	typ     exchange.OrderType
	qty     int64
	price   float64
	ocoWith string // 成交时需要撤销的兄弟单号
}

// Broker 是 exchange.Broker 的模拟实现，可并发使用。
type Broker struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	quote     QuoteFunc
	marks     map[string]float64
	positions map[string]*netPosition
	orders    []exchange.BrokerOrder
	resting   map[string]*restingOrder
	nowFn     func() time.Time
}

// NewBroker 构建模拟券商。quote 可为 nil，此时仅靠显式标价驱动成交。
func NewBroker(startingCash float64, quote QuoteFunc) *Broker {
	return &Broker{
		cash:      decimal.NewFromFloat(startingCash),
		quote:     quote,
		marks:     make(map[string]float64),
		positions: make(map[string]*netPosition),
		resting:   make(map[string]*restingOrder),
		nowFn:     time.Now,
	}
}

// SetNowFunc 注入时钟，仅测试使用。
func (b *Broker) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		b.nowFn = fn
	}
}

// SetMark 更新标价并评估挂起的保护腿。
func (b *Broker) SetMark(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setMarkLocked(symbol, price)
}

// Cash 返回当前现金余额。
func (b *Broker) Cash() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash
}

// PlaceOrder 提交单笔订单。市价单立即按标价成交；止损/限价单挂起等待
// 标价触发。数量非正或无法定价时拒单。
func (b *Broker) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.OrderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if req.Quantity <= 0 || req.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol=%q qty=%d", exchange.ErrOrderRejected, req.Symbol, req.Quantity)
	}

	switch req.Type {
	case exchange.OrderTypeMarket, "":
		price := b.markLocked(ctx, req.Symbol)
		if price <= 0 {
			price = req.Price
		}
		if price <= 0 {
			return nil, fmt.Errorf("%w: no price available for %s", exchange.ErrOrderRejected, req.Symbol)
		}
		id := b.appendOrderLocked(req, exchange.OrderStatusFilled, price)
		b.applyFillLocked(req.Symbol, req.Side, req.Quantity, price)
		return &exchange.OrderHandle{OrderID: id}, nil
	case exchange.OrderTypeStop, exchange.OrderTypeLimit:
		if req.Price <= 0 {
			return nil, fmt.Errorf("%w: %s order for %s requires price", exchange.ErrOrderRejected, req.Type, req.Symbol)
		}
		id := b.appendOrderLocked(req, exchange.OrderStatusOpen, 0)
		b.resting[id] = &restingOrder{
			index:  len(b.orders) - 1,
			symbol: req.Symbol,
			side:   req.Side,
			typ:    req.Type,
			qty:    req.Quantity,
			price:  req.Price,
		}
		return &exchange.OrderHandle{OrderID: id}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported order type %s", exchange.ErrOrderRejected, req.Type)
	}
}

// PlaceBracketOrder 入场市价成交，同时挂出互为 OCO 的止损与止盈腿。
func (b *Broker) PlaceBracketOrder(ctx context.Context, req exchange.BracketRequest) (*exchange.OrderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if req.Quantity <= 0 || req.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol=%q qty=%d", exchange.ErrOrderRejected, req.Symbol, req.Quantity)
	}
	entryPrice := req.Price
	if entryPrice <= 0 {
		entryPrice = b.markLocked(ctx, req.Symbol)
	}
	if entryPrice <= 0 {
		return nil, fmt.Errorf("%w: no price available for %s", exchange.ErrOrderRejected, req.Symbol)
	}

	entryID := b.appendOrderLocked(exchange.OrderRequest{
		Symbol: req.Symbol, Side: req.Side, Type: exchange.OrderTypeMarket, Quantity: req.Quantity,
	}, exchange.OrderStatusFilled, entryPrice)
	b.applyFillLocked(req.Symbol, req.Side, req.Quantity, entryPrice)

	closing := req.Side.Opposite()
	stopID := b.appendOrderLocked(exchange.OrderRequest{
		Symbol: req.Symbol, Side: closing, Type: exchange.OrderTypeStop, Quantity: req.Quantity, Price: req.StopLoss,
	}, exchange.OrderStatusOpen, 0)
	stopIdx := len(b.orders) - 1
	targetID := b.appendOrderLocked(exchange.OrderRequest{
		Symbol: req.Symbol, Side: closing, Type: exchange.OrderTypeLimit, Quantity: req.Quantity, Price: req.Target,
	}, exchange.OrderStatusOpen, 0)
	targetIdx := len(b.orders) - 1

	b.resting[stopID] = &restingOrder{
		index: stopIdx, symbol: req.Symbol, side: closing,
		typ: exchange.OrderTypeStop, qty: req.Quantity, price: req.StopLoss, ocoWith: targetID,
	}
	b.resting[targetID] = &restingOrder{
		index: targetIdx, symbol: req.Symbol, side: closing,
		typ: exchange.OrderTypeLimit, qty: req.Quantity, price: req.Target, ocoWith: stopID,
	}
	return &exchange.OrderHandle{OrderID: entryID, StopOrderID: stopID}, nil
}

// CancelOrder 撤销挂单。已成交或不存在返回 false。
func (b *Broker) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ro, ok := b.resting[orderID]
	if !ok {
		return false, nil
	}
	delete(b.resting, orderID)
	b.orders[ro.index].Status = exchange.OrderStatusCancelled
	b.orders[ro.index].UpdatedAt = b.nowFn()
	return true, nil
}

// OpenPositions 刷新标价、评估保护腿后返回净持仓。
func (b *Broker) OpenPositions(ctx context.Context) ([]exchange.BrokerPosition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.quote != nil {
		for symbol := range b.positions {
			if price := b.quote(ctx, symbol); price > 0 {
				b.setMarkLocked(symbol, price)
			}
		}
	}

	out := make([]exchange.BrokerPosition, 0, len(b.positions))
	for symbol, pos := range b.positions {
		out = append(out, exchange.BrokerPosition{
			Symbol:    symbol,
			Quantity:  pos.quantity,
			AvgPrice:  pos.avgPrice,
			LastPrice: b.marks[symbol],
		})
	}
	return out, nil
}

// Orders 返回全部订单的快照。
func (b *Broker) Orders(ctx context.Context) ([]exchange.BrokerOrder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]exchange.BrokerOrder, len(b.orders))
	copy(out, b.orders)
	return out, nil
}

func (b *Broker) markLocked(ctx context.Context, symbol string) float64 {
	if b.quote != nil {
		if price := b.quote(ctx, symbol); price > 0 {
			b.setMarkLocked(symbol, price)
		}
	}
	return b.marks[symbol]
}

// setMarkLocked 更新标价并触发满足条件的挂单。OCO 兄弟单同步撤销。
func (b *Broker) setMarkLocked(symbol string, price float64) {
	if price <= 0 {
		return
	}
	b.marks[symbol] = price
	for id, ro := range b.resting {
		if ro.symbol != symbol || !triggered(ro, price) {
			continue
		}
		delete(b.resting, id)
		b.orders[ro.index].Status = exchange.OrderStatusFilled
		b.orders[ro.index].FilledPrice = ro.price
		b.orders[ro.index].UpdatedAt = b.nowFn()
		b.applyFillLocked(ro.symbol, ro.side, ro.qty, ro.price)
		logger.Debugf("paper: %s %s leg filled for %s at %.2f", ro.typ, ro.side, ro.symbol, ro.price)

		if ro.ocoWith != "" {
			if sib, ok := b.resting[ro.ocoWith]; ok {
				delete(b.resting, ro.ocoWith)
				b.orders[sib.index].Status = exchange.OrderStatusCancelled
				b.orders[sib.index].UpdatedAt = b.nowFn()
			}
		}
	}
}

// triggered 判断标价是否触发挂单：止损在不利方向穿越触发，止盈在有利
// 方向穿越触发。
func triggered(ro *restingOrder, mark float64) bool {
	switch ro.typ {
	case exchange.OrderTypeStop:
		if ro.side == exchange.SideSell {
			return mark <= ro.price
		}
		return mark >= ro.price
	case exchange.OrderTypeLimit:
		if ro.side == exchange.SideSell {
			return mark >= ro.price
		}
		return mark <= ro.price
	}
	return false
}

func (b *Broker) appendOrderLocked(req exchange.OrderRequest, status exchange.OrderStatus, filled float64) string {
	id := uuid.NewString()
	typ := req.Type
	if typ == "" {
		typ = exchange.OrderTypeMarket
	}
	b.orders = append(b.orders, exchange.BrokerOrder{
		ID:          id,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        typ,
		Quantity:    req.Quantity,
		Price:       req.Price,
		FilledPrice: filled,
		Status:      status,
		UpdatedAt:   b.nowFn(),
	})
	return id
}

// applyFillLocked 把成交并入净持仓并更新现金账本。成交价同时记为最新
// 标价，行情源未覆盖的标的仍可按最近成交价市价平仓。
func (b *Broker) applyFillLocked(symbol string, side exchange.Side, qty int64, price float64) {
	b.marks[symbol] = price
	signed := qty
	if side == exchange.SideSell {
		signed = -qty
	}
	notional := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty))
	if side == exchange.SideBuy {
		b.cash = b.cash.Sub(notional)
	} else {
		b.cash = b.cash.Add(notional)
	}

	pos, ok := b.positions[symbol]
	if !ok {
		b.positions[symbol] = &netPosition{quantity: signed, avgPrice: price}
		return
	}
	next := pos.quantity + signed
	switch {
	case next == 0:
		delete(b.positions, symbol)
	case (pos.quantity > 0) == (next > 0) && abs(next) > abs(pos.quantity):
		// 同向加仓，摊平均价
		total := float64(abs(pos.quantity))*pos.avgPrice + float64(qty)*price
		pos.avgPrice = total / float64(abs(next))
		pos.quantity = next
	default:
		pos.quantity = next
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
