// Package risk 实现组合级风控与跨策略准入协调。所有准入判断和持仓登记
// 在同一把互斥锁下完成，保证并发策略任务之间的检查-登记原子性。
package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"argus/internal/config"
	"argus/internal/logger"
	"argus/internal/types"
)

// State 是组合级风险状态。
type State string

const (
	StateSafe            State = "SAFE"
	StateStopLossHit     State = "STOP_LOSS_HIT"
	StateProfitTargetHit State = "PROFIT_TARGET_HIT"
)

// Action 是风控建议动作，由调度器决定如何落实。
type Action string

const (
	ActionCloseAll        Action = "CLOSE_ALL_POSITIONS"
	ActionConsiderClosing Action = "CONSIDER_CLOSING_POSITIONS"
)

// Status 是一次组合检查的结果。
type Status struct {
	State       State    `json:"state"`
	DailyPnLPct float64  `json:"daily_pnl_pct"`
	Violations  []string `json:"violations,omitempty"`
	Actions     []Action `json:"actions,omitempty"`
}

// StrategyLimit 声明一个策略的仓位上限与类别。
type StrategyLimit struct {
	Name         string
	MaxPositions int
	Scalping     bool
}

type entry struct {
	strategy string
	sector   types.Sector
	pending  bool
}

// SignalWindowFunc 判断某时刻是否处于非剥头皮策略的信号生成窗口。
type SignalWindowFunc func(time.Time) bool

// Coordinator 跨策略协调新仓准入、板块集中度与组合止损/止盈。
type Coordinator struct {
	mu             sync.Mutex
	cfg            config.MultiConfig
	inSignalWindow SignalWindowFunc
	limits         map[string]StrategyLimit

	dayStartValue float64
	currentValue  float64

	// entries 以 symbol 为键登记全部已知持仓与待确认预留。
	entries map[string]entry

	lastNonScalping time.Time

	nowFn func() time.Time
}

// NewCoordinator 构建协调器。inSignalWindow 由调度器的时段判断注入。
func NewCoordinator(cfg config.MultiConfig, inSignalWindow SignalWindowFunc, limits []StrategyLimit) *Coordinator {
	lm := make(map[string]StrategyLimit, len(limits))
	for _, l := range limits {
		lm[l.Name] = l
	}
	return &Coordinator{
		cfg:            cfg,
		inSignalWindow: inSignalWindow,
		limits:         lm,
		dayStartValue:  cfg.PortfolioValue,
		currentValue:   cfg.PortfolioValue,
		entries:        make(map[string]entry),
		nowFn:          time.Now,
	}
}

// SetNowFunc 注入时钟，仅测试使用。
func (c *Coordinator) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		c.nowFn = fn
	}
}

// UpdatePortfolioValue 更新组合当前价值（日初价值 + 当日盈亏）。
func (c *Coordinator) UpdatePortfolioValue(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v > 0 {
		c.currentValue = v
	}
}

// DayStartValue returns the portfolio value the day opened with.
func (c *Coordinator) DayStartValue() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dayStartValue
}

// CheckPortfolio 评估组合止损与止盈阈值并返回状态。
func (c *Coordinator) CheckPortfolio() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.portfolioStatusLocked()
}

func (c *Coordinator) portfolioStatusLocked() Status {
	st := Status{State: StateSafe}
	if c.dayStartValue <= 0 {
		return st
	}
	pct := (c.currentValue - c.dayStartValue) / c.dayStartValue * 100
	st.DailyPnLPct = pct
	switch {
	case pct <= -c.cfg.PortfolioStopLossPct:
		st.State = StateStopLossHit
		st.Violations = append(st.Violations,
			fmt.Sprintf("daily loss %.2f%% breaches portfolio stop %.2f%%", pct, c.cfg.PortfolioStopLossPct))
		st.Actions = append(st.Actions, ActionCloseAll)
	case pct >= c.cfg.DailyProfitTargetPct:
		st.State = StateProfitTargetHit
		st.Violations = append(st.Violations,
			fmt.Sprintf("daily profit %.2f%% reached target %.2f%%", pct, c.cfg.DailyProfitTargetPct))
		st.Actions = append(st.Actions, ActionConsiderClosing)
	}
	return st
}

// SyncStrategyPositions 用策略监控后的真实持仓重建登记表。该策略此前的
// 全部登记（含已落地的预留）被替换。
func (c *Coordinator) SyncStrategyPositions(strategy string, positions []types.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sym, e := range c.entries {
		if e.strategy == strategy {
			delete(c.entries, sym)
		}
	}
	for _, p := range positions {
		c.entries[p.Symbol] = entry{strategy: strategy, sector: p.Sector}
	}
}

// AdmitNewPosition 检查新仓是否可以开立，通过时同步登记一条待确认预留。
// 拒绝原因会记录到日志。执行失败时调用方必须 ReleaseAdmission。
func (c *Coordinator) AdmitNewPosition(strategy, symbol string, sector types.Sector) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.portfolioStatusLocked(); st.State == StateStopLossHit {
		logger.Warnf("risk: admission denied for %s: portfolio state %s", symbol, st.State)
		return false
	}
	if _, dup := c.entries[symbol]; dup {
		logger.Debugf("risk: admission denied for %s: already held", symbol)
		return false
	}
	if len(c.entries) >= c.cfg.MaxTotalPositions {
		logger.Debugf("risk: admission denied for %s: total positions at cap %d", symbol, c.cfg.MaxTotalPositions)
		return false
	}
	sectorCount := 0
	strategyCount := 0
	for _, e := range c.entries {
		if e.sector == sector && sector != types.SectorUnknown {
			sectorCount++
		}
		if e.strategy == strategy {
			strategyCount++
		}
	}
	if sectorCount >= c.cfg.MaxPositionsPerSector {
		logger.Debugf("risk: admission denied for %s: sector %s at cap %d", symbol, sector, c.cfg.MaxPositionsPerSector)
		return false
	}
	if lim, ok := c.limits[strategy]; ok && strategyCount >= lim.MaxPositions {
		logger.Debugf("risk: admission denied for %s: strategy %s at cap %d", symbol, strategy, lim.MaxPositions)
		return false
	}

	c.entries[symbol] = entry{strategy: strategy, sector: sector, pending: true}
	return true
}

// ReleaseAdmission 撤销一条未落地的预留。
func (c *Coordinator) ReleaseAdmission(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[symbol]; ok && e.pending {
		delete(c.entries, symbol)
	}
}

// AdjustForCorrelation 按板块集中度衰减仓位数量。同板块已有持仓时乘以
// 衰减系数并向下取整。
func (c *Coordinator) AdjustForCorrelation(qty int64, sector types.Sector) int64 {
	if qty <= 0 || sector == types.SectorUnknown {
		return qty
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.sector == sector {
			return int64(math.Floor(float64(qty) * c.cfg.SectorDampening))
		}
	}
	return qty
}

// MarkNonScalpingActivity 记录非剥头皮策略的最近开仓活动时刻。
func (c *Coordinator) MarkNonScalpingActivity(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastNonScalping = now
}

// AllowScalping 判断当前周期是否允许剥头皮参与。配置放开时恒为 true；
// 否则在非剥头皮策略冷却期内、或处于信号窗口且其它策略仍有空位时拒绝。
func (c *Coordinator) AllowScalping(now time.Time) bool {
	if c.cfg.AllowScalpingDuringSignals {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cooldown := time.Duration(c.cfg.CrossStrategyCooldownMinutes) * time.Minute
	if !c.lastNonScalping.IsZero() && now.Sub(c.lastNonScalping) < cooldown {
		return false
	}

	if c.inSignalWindow != nil && c.inSignalWindow(now) {
		counts := make(map[string]int)
		for _, e := range c.entries {
			counts[e.strategy]++
		}
		for name, lim := range c.limits {
			if lim.Scalping {
				continue
			}
			if counts[name] < lim.MaxPositions {
				return false
			}
		}
	}
	return true
}

// OpenEntryCount returns the number of registered positions and reservations.
func (c *Coordinator) OpenEntryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
