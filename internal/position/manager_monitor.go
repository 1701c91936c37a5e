package position

import (
	"context"
	"fmt"

	"argus/internal/gateway/exchange"
	"argus/internal/logger"
	"argus/internal/types"
)

// Monitor 对照券商状态核对 positions 表并结算盈亏。券商仍持有的仓位累计
// 浮动盈亏；已被括号腿平掉的仓位结算已实现盈亏并从表中移除；两边都找不到
// 对应记录的仓位视为核对异常：告警并保留，等待下轮重查，绝不静默丢弃。
// 对同一份券商状态重复调用不会重复结算。
func (m *Manager) Monitor(ctx context.Context, positions map[string]*types.Position) (types.PnLSummary, error) {
	var summary types.PnLSummary
	if m == nil || m.broker == nil {
		return summary, fmt.Errorf("position manager not initialized")
	}
	if len(positions) == 0 {
		return summary, nil
	}

	brokerPositions, err := m.broker.OpenPositions(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetching broker positions: %w", err)
	}
	orders, err := m.broker.Orders(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetching broker orders: %w", err)
	}

	bySymbol := make(map[string]exchange.BrokerPosition, len(brokerPositions))
	for _, bp := range brokerPositions {
		bySymbol[bp.Symbol] = bp
	}

	for symbol, pos := range positions {
		if bp, ok := bySymbol[symbol]; ok {
			if bp.LastPrice > 0 {
				summary.Unrealized += (bp.LastPrice - pos.EntryPrice) * float64(pos.Quantity)
			}
			continue
		}

		exit, ok := m.findExitFill(orders, pos)
		if !ok {
			summary.Anomalies++
			logger.Warnf("position: %s has no broker position and no exit fill for %s, retaining for next cycle",
				m.strategy, symbol)
			continue
		}
		closed := types.ClosedPosition{
			Symbol:    symbol,
			Strategy:  m.strategy,
			Reason:    "BRACKET_EXECUTED",
			PnL:       (exit - pos.EntryPrice) * float64(pos.Quantity),
			ExitPrice: exit,
			ClosedAt:  m.nowFn(),
			HoldSecs:  m.nowFn().Sub(pos.EntryTime).Seconds(),
		}
		summary.Realized += closed.PnL
		summary.Closed = append(summary.Closed, closed)
		delete(positions, symbol)
	}
	return summary, nil
}

// findExitFill 在订单流中定位平掉该持仓的成交。优先匹配已知的止损单号，
// 其次匹配入场之后同标的反方向的成交。
func (m *Manager) findExitFill(orders []exchange.BrokerOrder, pos *types.Position) (float64, bool) {
	closingSide := exchange.SideSell
	if !pos.IsLong() {
		closingSide = exchange.SideBuy
	}
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		if o.Status != exchange.OrderStatusFilled || o.FilledPrice <= 0 {
			continue
		}
		if pos.StopOrderID != "" && o.ID == pos.StopOrderID {
			return o.FilledPrice, true
		}
		if o.Symbol == pos.Symbol && o.Side == closingSide && !o.UpdatedAt.Before(pos.EntryTime) {
			return o.FilledPrice, true
		}
	}
	return 0, false
}
