package strategy

import (
	"context"
	"sort"
	"sync"
	"time"

	"argus/internal/position"
	"argus/internal/types"
)

// Base 承载各策略家族共用的状态：持仓表、生命周期管理器与绩效计数。
// 具体家族内嵌 Base 并实现自己的 GenerateAndExecute。
type Base struct {
	name     string
	scalping bool
	manager  *position.Manager

	mu        sync.Mutex
	positions map[string]*types.Position

	dailyPnL      float64
	unrealized    float64
	tradesToday   int
	closedCount   int
	totalHoldSecs float64

	nowFn func() time.Time
}

// NewBase 构建策略共享底座。
func NewBase(name string, scalping bool, manager *position.Manager) *Base {
	return &Base{
		name:      name,
		scalping:  scalping,
		manager:   manager,
		positions: make(map[string]*types.Position),
		nowFn:     time.Now,
	}
}

// SetNowFunc 注入时钟，仅测试使用。
func (b *Base) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		b.nowFn = fn
	}
}

func (b *Base) Name() string   { return b.name }
func (b *Base) Scalping() bool { return b.scalping }

// Manager exposes the lifecycle manager to the embedding strategy.
func (b *Base) Manager() *position.Manager { return b.manager }

// Monitor 对照券商状态核对持仓并累计当日盈亏。
func (b *Base) Monitor(ctx context.Context) (types.PnLSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	summary, err := b.manager.Monitor(ctx, b.positions)
	if err != nil {
		return summary, err
	}
	b.dailyPnL += summary.Realized
	b.unrealized = summary.Unrealized
	for _, closed := range summary.Closed {
		b.closedCount++
		b.totalHoldSecs += closed.HoldSecs
	}
	return summary, nil
}

// Track 登记一笔新开仓并累计当日交易数。
func (b *Base) Track(pos *types.Position) {
	if pos == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[pos.Symbol] = pos
	b.tradesToday++
}

// Untrack 移除一笔持仓并登记其平仓结果。
func (b *Base) Untrack(closed types.ClosedPosition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, closed.Symbol)
	b.dailyPnL += closed.PnL
	b.closedCount++
	b.totalHoldSecs += closed.HoldSecs
}

// Has reports whether the strategy already holds symbol.
func (b *Base) Has(symbol string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.positions[symbol]
	return ok
}

// OpenPositionCount returns the number of tracked positions.
func (b *Base) OpenPositionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}

// Positions 返回持仓表的值拷贝，供风控登记与报告使用。
func (b *Base) Positions() []types.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// positionsSnapshot 返回指针快照，仅限内嵌策略在持锁外遍历使用。
func (b *Base) positionsSnapshot() []*types.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*types.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out
}

// AgedPositions 返回持有时间超过 maxHold 的持仓快照。
func (b *Base) AgedPositions(maxHold time.Duration) []*types.Position {
	now := b.nowFn()
	var aged []*types.Position
	for _, p := range b.positionsSnapshot() {
		if now.Sub(p.EntryTime) > maxHold {
			aged = append(aged, p)
		}
	}
	return aged
}

// Performance 汇总当前绩效快照。
func (b *Base) Performance() types.PerformanceSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.nowFn()
	summary := types.PerformanceSummary{
		Strategy:        b.name,
		DailyPnL:        b.dailyPnL,
		UnrealizedPnL:   b.unrealized,
		TradesToday:     b.tradesToday,
		ActivePositions: len(b.positions),
	}
	if b.closedCount > 0 {
		summary.AvgHoldSecs = b.totalHoldSecs / float64(b.closedCount)
	}
	for _, p := range b.positions {
		summary.Positions = append(summary.Positions, types.PositionDetail{
			Symbol:     p.Symbol,
			Sector:     p.Sector,
			SignalType: p.SignalType,
			EntryPrice: p.EntryPrice,
			Quantity:   p.Quantity,
			EntryTime:  p.EntryTime,
			HoldSecs:   now.Sub(p.EntryTime).Seconds(),
			OrderID:    p.OrderID,
		})
	}
	sort.Slice(summary.Positions, func(i, j int) bool {
		return summary.Positions[i].Symbol < summary.Positions[j].Symbol
	})
	return summary
}

// SortSignals 按置信度降序排序，同分按 symbol 升序保证确定性。
func SortSignals(signals []types.TradingSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Confidence != signals[j].Confidence {
			return signals[i].Confidence > signals[j].Confidence
		}
		return signals[i].Symbol < signals[j].Symbol
	})
}

// SleepCtx 等待 d 或 ctx 取消，用于同一周期内连续执行之间的节流。
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Clamp01 把置信度压入 [0,1]。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
