// Package position 管理单个策略实例的持仓生命周期：按信号开仓、对照券商
// 状态核对、结算盈亏与强制平仓。
package position

import (
	"errors"
	"math"
	"time"

	"argus/internal/gateway/exchange"
	"argus/internal/types"
)

// ErrInvalidQuantity 表示仓位数量非法（风险定仓结果为 0 或负数）。
// 出现该错误时不会触碰券商。
var ErrInvalidQuantity = errors.New("invalid order quantity")

// Manager 是策略私有的持仓生命周期管理器。持仓表由策略持有并传入，
// Manager 不跨策略共享状态。
type Manager struct {
	strategy string
	broker   exchange.Broker
	nowFn    func() time.Time
}

// NewManager 构建持仓管理器。
func NewManager(strategy string, broker exchange.Broker) *Manager {
	return &Manager{strategy: strategy, broker: broker, nowFn: time.Now}
}

// SetNowFunc 注入时钟，仅测试使用。
func (m *Manager) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		m.nowFn = fn
	}
}

// SizeByRisk 按单笔风险预算定仓：floor(风险金额 / 每股止损距离)。
// 止损距离为 0 或预算非正时返回 0，调用方应放弃该信号。
func SizeByRisk(portfolioValue, riskPerTradePct float64, sig types.TradingSignal) int64 {
	riskAmount := portfolioValue * riskPerTradePct / 100
	if riskAmount <= 0 {
		return 0
	}
	perShare := math.Abs(sig.StopLoss - sig.EntryPrice)
	if perShare == 0 {
		return 0
	}
	return int64(math.Floor(riskAmount / perShare))
}

// SizeByValue 按组合价值比例定仓，用于剥头皮的固定比例仓位。
func SizeByValue(portfolioValue, positionSizePct, entryPrice float64) int64 {
	if portfolioValue <= 0 || positionSizePct <= 0 || entryPrice <= 0 {
		return 0
	}
	return int64(math.Floor(portfolioValue * positionSizePct / 100 / entryPrice))
}

func signedQuantity(sig types.TradingSignal, qty int64) int64 {
	if sig.Type.IsLong() {
		return qty
	}
	return -qty
}

func entrySide(sig types.TradingSignal) exchange.Side {
	if sig.Type.IsLong() {
		return exchange.SideBuy
	}
	return exchange.SideSell
}
