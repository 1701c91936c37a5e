// Package scheduler 提供交易时段窗口与多策略调度循环。
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"argus/internal/config"
	"argus/internal/logger"
	"argus/internal/risk"
	"argus/internal/types"
)

// 周期间隔的钳制边界。剥头皮参与时需要更细的轮询粒度。
const (
	minCycleInterval     = 5 * time.Second
	maxScalpingInterval  = 10 * time.Second
	defaultCycleInterval = 30 * time.Second
	defaultOffHoursPause = 5 * time.Minute
)

// Strategy 是调度循环所需的最小策略接口。
type Strategy interface {
	Name() string
	Scalping() bool
	Monitor(ctx context.Context) (types.PnLSummary, error)
	GenerateAndExecute(ctx context.Context) error
	Performance() types.PerformanceSummary
	OpenPositionCount() int
	Positions() []types.Position
}

// TradeRecorder 持久化已平仓交易与绩效快照。实现可为空操作。
type TradeRecorder interface {
	RecordClosed(closed types.ClosedPosition) error
	RecordSnapshot(perf types.ComprehensivePerformance) error
}

// Scheduler 驱动所有策略的监控-生成-执行周期。
type Scheduler struct {
	cfg        config.SessionConfig
	windows    *Windows
	risk       *risk.Coordinator
	strategies []Strategy
	recorder   TradeRecorder

	mu       sync.Mutex
	lastPerf types.ComprehensivePerformance

	// lastNonScalpingCount 跟踪非剥头皮持仓数，用于检测新的开仓活动。
	lastNonScalpingCount int

	nowFn func() time.Time
}

// New 构建调度器。recorder 可为 nil。
func New(cfg config.SessionConfig, windows *Windows, coord *risk.Coordinator,
	strategies []Strategy, recorder TradeRecorder) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		windows:    windows,
		risk:       coord,
		strategies: strategies,
		recorder:   recorder,
		nowFn:      time.Now,
	}
}

// SetNowFunc 注入时钟，仅测试使用。
func (s *Scheduler) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// Run 持续运行调度循环直到 ctx 取消。收到取消信号后完成当前周期、
// 输出最终汇总并返回 nil。
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Infof("scheduler: starting with %d strategies", len(s.strategies))
	for {
		select {
		case <-ctx.Done():
			s.finalize()
			return nil
		default:
		}

		now := s.nowFn()
		if !s.windows.IsTradingTime(now) {
			pause := time.Duration(s.cfg.OffHoursBackoffSeconds) * time.Second
			if pause <= 0 {
				pause = defaultOffHoursPause
			}
			logger.Infof("scheduler: outside trading hours, sleeping %s", pause)
			if err := s.sleep(ctx, pause); err != nil {
				s.finalize()
				return nil
			}
			continue
		}

		scalpingRan := s.runCycle(ctx)
		if err := s.sleep(ctx, s.cycleInterval(scalpingRan)); err != nil {
			s.finalize()
			return nil
		}
	}
}

// runCycle 执行一个完整周期：串行监控、风控同步、并发生成执行、绩效
// 聚合与组合风险检查。返回剥头皮策略本周期是否被放行。
func (s *Scheduler) runCycle(ctx context.Context) bool {
	now := s.nowFn()

	// 串行监控：每个策略先对账再考虑新仓。
	for _, st := range s.strategies {
		summary, err := st.Monitor(ctx)
		if err != nil {
			logger.Warnf("scheduler: %s monitor failed: %v", st.Name(), err)
		}
		for _, closed := range summary.Closed {
			logger.Infof("scheduler: %s closed %s reason=%s pnl=%.2f", st.Name(), closed.Symbol, closed.Reason, closed.PnL)
			s.recordClosed(closed)
		}
		s.risk.SyncStrategyPositions(st.Name(), st.Positions())
	}

	// 确定参与生成的策略：剥头皮受跨策略互斥门控。
	scalpingAllowed := s.risk.AllowScalping(now)
	var included []Strategy
	for _, st := range s.strategies {
		if st.Scalping() && !scalpingAllowed {
			logger.Debugf("scheduler: scalping suppressed this cycle")
			continue
		}
		included = append(included, st)
	}

	// 并发生成执行。任何任务失败只记录，不取消兄弟任务，不中断循环。
	errs := make([]error, len(included))
	g := new(errgroup.Group)
	for i, st := range included {
		i, st := i, st
		g.Go(func() error {
			if err := st.GenerateAndExecute(ctx); err != nil && ctx.Err() == nil {
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			logger.Errorf("scheduler: %s generate-and-execute failed: %v", included[i].Name(), err)
		}
	}

	s.aggregate(now)
	s.trackActivity(now)
	return scalpingAllowed
}

// aggregate 汇总各策略绩效，更新组合价值并检查组合级风险。
func (s *Scheduler) aggregate(now time.Time) {
	perf := types.ComprehensivePerformance{Timestamp: now}
	for _, st := range s.strategies {
		ps := st.Performance()
		perf.Strategies = append(perf.Strategies, ps)
		perf.TotalDailyPnL += ps.DailyPnL + ps.UnrealizedPnL
		perf.TotalPositions += ps.ActivePositions
	}
	perf.PortfolioValue = s.risk.DayStartValue() + perf.TotalDailyPnL
	s.risk.UpdatePortfolioValue(perf.PortfolioValue)

	status := s.risk.CheckPortfolio()
	perf.RiskState = string(status.State)
	perf.Violations = status.Violations
	if status.State != risk.StateSafe {
		for _, v := range status.Violations {
			logger.Warnf("scheduler: risk violation: %s", v)
		}
		for _, a := range status.Actions {
			logger.Warnf("scheduler: risk action advised: %s", a)
		}
	}

	s.mu.Lock()
	s.lastPerf = perf
	s.mu.Unlock()
}

// trackActivity 检测非剥头皮持仓数是否增加，增加则刷新跨策略冷却计时。
func (s *Scheduler) trackActivity(now time.Time) {
	count := 0
	for _, st := range s.strategies {
		if !st.Scalping() {
			count += st.OpenPositionCount()
		}
	}
	if count > s.lastNonScalpingCount {
		s.risk.MarkNonScalpingActivity(now)
	}
	s.lastNonScalpingCount = count
}

// Comprehensive 返回最近一个周期的综合绩效快照。
func (s *Scheduler) Comprehensive() types.ComprehensivePerformance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPerf
}

func (s *Scheduler) recordClosed(closed types.ClosedPosition) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordClosed(closed); err != nil {
		logger.Warnf("scheduler: recording closed trade %s failed: %v", closed.Symbol, err)
	}
}

// cycleInterval 返回钳制后的周期间隔：下限 5s，剥头皮参与时上限 10s。
func (s *Scheduler) cycleInterval(scalpingActive bool) time.Duration {
	interval := time.Duration(s.cfg.MonitoringIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultCycleInterval
	}
	if interval < minCycleInterval {
		interval = minCycleInterval
	}
	if scalpingActive && s.hasScalping() && interval > maxScalpingInterval {
		interval = maxScalpingInterval
	}
	return interval
}

func (s *Scheduler) hasScalping() bool {
	for _, st := range s.strategies {
		if st.Scalping() {
			return true
		}
	}
	return false
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// finalize 输出最终绩效汇总并持久化收盘快照。
func (s *Scheduler) finalize() {
	perf := s.Comprehensive()
	if perf.Timestamp.IsZero() {
		perf.Timestamp = s.nowFn()
	}
	logger.InfoBlock(formatFinalSummary(perf))
	if s.recorder != nil {
		if err := s.recorder.RecordSnapshot(perf); err != nil {
			logger.Warnf("scheduler: recording final snapshot failed: %v", err)
		}
	}
}

func formatFinalSummary(perf types.ComprehensivePerformance) string {
	var b strings.Builder
	b.WriteString("==== session summary ====\n")
	b.WriteString(fmt.Sprintf("total daily pnl: %.2f\n", perf.TotalDailyPnL))
	b.WriteString(fmt.Sprintf("open positions: %d\n", perf.TotalPositions))
	b.WriteString(fmt.Sprintf("portfolio value: %.2f\n", perf.PortfolioValue))
	b.WriteString(fmt.Sprintf("risk state: %s\n", perf.RiskState))
	for _, st := range perf.Strategies {
		b.WriteString(fmt.Sprintf("- %s: pnl=%.2f unrealized=%.2f trades=%d open=%d\n",
			st.Strategy, st.DailyPnL, st.UnrealizedPnL, st.TradesToday, st.ActivePositions))
	}
	return b.String()
}
