package position

import (
	"context"
	"fmt"

	"argus/internal/gateway/exchange"
	"argus/internal/logger"
	"argus/internal/types"
)

// ExecuteBracket 以括号单开仓（入场 + 止损腿 + 止盈腿）。数量非法时返回
// ErrInvalidQuantity 且不触碰券商；券商拒单时原样返回错误。
func (m *Manager) ExecuteBracket(ctx context.Context, sig types.TradingSignal, qty int64) (*types.Position, error) {
	if m == nil || m.broker == nil {
		return nil, fmt.Errorf("position manager not initialized")
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	handle, err := m.broker.PlaceBracketOrder(ctx, exchange.BracketRequest{
		Symbol:   sig.Symbol,
		Side:     entrySide(sig),
		Quantity: qty,
		Price:    sig.EntryPrice,
		StopLoss: sig.StopLoss,
		Target:   sig.TargetPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("bracket order for %s: %w", sig.Symbol, err)
	}
	return m.newPosition(sig, qty, handle), nil
}

// ExecuteWithStop 以市价单开仓并单独挂出止损单，用于剥头皮的快速入场。
func (m *Manager) ExecuteWithStop(ctx context.Context, sig types.TradingSignal, qty int64) (*types.Position, error) {
	if m == nil || m.broker == nil {
		return nil, fmt.Errorf("position manager not initialized")
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	handle, err := m.broker.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:   sig.Symbol,
		Side:     entrySide(sig),
		Type:     exchange.OrderTypeMarket,
		Quantity: qty,
		Price:    sig.EntryPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("entry order for %s: %w", sig.Symbol, err)
	}
	pos := m.newPosition(sig, qty, handle)

	stopHandle, err := m.broker.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:   sig.Symbol,
		Side:     entrySide(sig).Opposite(),
		Type:     exchange.OrderTypeStop,
		Quantity: qty,
		Price:    sig.StopLoss,
	})
	if err != nil {
		// 入场已成交，止损挂单失败只降级为告警，持仓仍被跟踪。
		logger.Warnf("position: %s stop order for %s failed: %v", m.strategy, sig.Symbol, err)
	} else if stopHandle != nil {
		pos.StopOrderID = stopHandle.OrderID
	}
	return pos, nil
}

// CloseMarket 市价平掉一笔持仓并撤销遗留的止损单，返回已实现盈亏记录。
func (m *Manager) CloseMarket(ctx context.Context, pos *types.Position, reason string) (types.ClosedPosition, error) {
	if m == nil || m.broker == nil || pos == nil {
		return types.ClosedPosition{}, fmt.Errorf("position manager not initialized")
	}
	side := exchange.SideSell
	if !pos.IsLong() {
		side = exchange.SideBuy
	}
	handle, err := m.broker.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:   pos.Symbol,
		Side:     side,
		Type:     exchange.OrderTypeMarket,
		Quantity: pos.AbsQuantity(),
	})
	if err != nil {
		return types.ClosedPosition{}, fmt.Errorf("close order for %s: %w", pos.Symbol, err)
	}
	if pos.StopOrderID != "" {
		if _, err := m.broker.CancelOrder(ctx, pos.StopOrderID); err != nil {
			logger.Warnf("position: cancel stop %s for %s failed: %v", pos.StopOrderID, pos.Symbol, err)
		}
	}

	exit := pos.EntryPrice
	if price, ok := m.lookupFillPrice(ctx, handle); ok {
		exit = price
	}
	now := m.nowFn()
	return types.ClosedPosition{
		Symbol:    pos.Symbol,
		Strategy:  m.strategy,
		Reason:    reason,
		PnL:       (exit - pos.EntryPrice) * float64(pos.Quantity),
		ExitPrice: exit,
		ClosedAt:  now,
		HoldSecs:  now.Sub(pos.EntryTime).Seconds(),
	}, nil
}

func (m *Manager) lookupFillPrice(ctx context.Context, handle *exchange.OrderHandle) (float64, bool) {
	if handle == nil || handle.OrderID == "" {
		return 0, false
	}
	orders, err := m.broker.Orders(ctx)
	if err != nil {
		return 0, false
	}
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		if o.ID == handle.OrderID && o.Status == exchange.OrderStatusFilled && o.FilledPrice > 0 {
			return o.FilledPrice, true
		}
	}
	return 0, false
}

func (m *Manager) newPosition(sig types.TradingSignal, qty int64, handle *exchange.OrderHandle) *types.Position {
	pos := &types.Position{
		Symbol:      sig.Symbol,
		Sector:      sig.Sector,
		Strategy:    m.strategy,
		SignalType:  sig.Type,
		EntryPrice:  sig.EntryPrice,
		Quantity:    signedQuantity(sig, qty),
		StopLoss:    sig.StopLoss,
		TargetPrice: sig.TargetPrice,
		EntryTime:   m.nowFn(),
	}
	if handle != nil {
		pos.OrderID = handle.OrderID
		pos.StopOrderID = handle.StopOrderID
	}
	return pos
}
