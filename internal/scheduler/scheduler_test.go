package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"argus/internal/config"
	"argus/internal/risk"
	"argus/internal/types"
)

type fakeStrategy struct {
	name     string
	scalping bool
	perf     types.PerformanceSummary
	genErr   error
	genCalls atomic.Int32
	monCalls atomic.Int32
}

func (f *fakeStrategy) Name() string   { return f.name }
func (f *fakeStrategy) Scalping() bool { return f.scalping }
func (f *fakeStrategy) Monitor(ctx context.Context) (types.PnLSummary, error) {
	f.monCalls.Add(1)
	return types.PnLSummary{}, nil
}
func (f *fakeStrategy) GenerateAndExecute(ctx context.Context) error {
	f.genCalls.Add(1)
	return f.genErr
}
func (f *fakeStrategy) Performance() types.PerformanceSummary { return f.perf }
func (f *fakeStrategy) OpenPositionCount() int                { return f.perf.ActivePositions }
func (f *fakeStrategy) Positions() []types.Position           { return nil }

func multiConfig() config.MultiConfig {
	return config.MultiConfig{
		PortfolioValue:               1_000_000,
		RiskPerTradePct:              1.0,
		MaxTotalPositions:            6,
		MaxPositionsPerSector:        2,
		PortfolioStopLossPct:         4.0,
		DailyProfitTargetPct:         3.0,
		CrossStrategyCooldownMinutes: 5,
		SectorDampening:              0.7,
	}
}

func newTestScheduler(strategies []Strategy, coord *risk.Coordinator) *Scheduler {
	return New(sessionConfig(), NewWindows(sessionConfig()), coord, strategies, nil)
}

func TestRunCycleFailureDoesNotBlockSiblings(t *testing.T) {
	failing := &fakeStrategy{name: "gap_short", genErr: errors.New("feed unavailable")}
	healthy := &fakeStrategy{name: "breakout"}
	coord := risk.NewCoordinator(multiConfig(), nil, nil)

	s := newTestScheduler([]Strategy{failing, healthy}, coord)
	s.runCycle(context.Background())

	assert.Equal(t, int32(1), failing.genCalls.Load())
	assert.Equal(t, int32(1), healthy.genCalls.Load())
	assert.Equal(t, int32(1), failing.monCalls.Load())
	assert.Equal(t, int32(1), healthy.monCalls.Load())
}

func TestRunCycleSuppressesScalpingDuringCooldown(t *testing.T) {
	gap := &fakeStrategy{name: "gap_short"}
	scalp := &fakeStrategy{name: "scalping", scalping: true}
	coord := risk.NewCoordinator(multiConfig(), nil, nil)
	coord.MarkNonScalpingActivity(time.Now())

	s := newTestScheduler([]Strategy{gap, scalp}, coord)
	s.runCycle(context.Background())

	assert.Equal(t, int32(1), gap.genCalls.Load())
	assert.Equal(t, int32(0), scalp.genCalls.Load())
	// 监控不受门控影响
	assert.Equal(t, int32(1), scalp.monCalls.Load())
}

func TestRunCycleAggregatesPerformanceAndRisk(t *testing.T) {
	gap := &fakeStrategy{name: "gap_short", perf: types.PerformanceSummary{
		Strategy: "gap_short", DailyPnL: -30_000, UnrealizedPnL: -15_000, ActivePositions: 2,
	}}
	brk := &fakeStrategy{name: "breakout", perf: types.PerformanceSummary{
		Strategy: "breakout", DailyPnL: -15_000, ActivePositions: 1,
	}}
	coord := risk.NewCoordinator(multiConfig(), nil, nil)

	s := newTestScheduler([]Strategy{gap, brk}, coord)
	s.runCycle(context.Background())

	perf := s.Comprehensive()
	assert.InDelta(t, -60_000, perf.TotalDailyPnL, 1e-6)
	assert.Equal(t, 3, perf.TotalPositions)
	assert.InDelta(t, 940_000, perf.PortfolioValue, 1e-6)
	// -6% 当日亏损触发组合止损
	assert.Equal(t, string(risk.StateStopLossHit), perf.RiskState)
	assert.NotEmpty(t, perf.Violations)
}

func TestRunCycleMarksNonScalpingActivity(t *testing.T) {
	gap := &fakeStrategy{name: "gap_short"}
	scalp := &fakeStrategy{name: "scalping", scalping: true}
	coord := risk.NewCoordinator(multiConfig(), nil, nil)

	s := newTestScheduler([]Strategy{gap, scalp}, coord)
	s.runCycle(context.Background())
	assert.Equal(t, int32(1), scalp.genCalls.Load())

	// 本周期出现新的非剥头皮持仓：门控在下个周期生效
	gap.perf.ActivePositions = 1
	s.runCycle(context.Background())
	assert.Equal(t, int32(2), scalp.genCalls.Load())
	s.runCycle(context.Background())
	assert.Equal(t, int32(2), scalp.genCalls.Load())
}

func TestCycleIntervalClamping(t *testing.T) {
	cfg := sessionConfig()
	cfg.MonitoringIntervalSeconds = 1
	s := New(cfg, NewWindows(cfg), risk.NewCoordinator(multiConfig(), nil, nil),
		[]Strategy{&fakeStrategy{name: "scalping", scalping: true}}, nil)

	assert.Equal(t, minCycleInterval, s.cycleInterval(false))
	assert.Equal(t, minCycleInterval, s.cycleInterval(true))

	cfg.MonitoringIntervalSeconds = 60
	s = New(cfg, NewWindows(cfg), risk.NewCoordinator(multiConfig(), nil, nil),
		[]Strategy{&fakeStrategy{name: "scalping", scalping: true}}, nil)
	assert.Equal(t, 60*time.Second, s.cycleInterval(false))
	assert.Equal(t, maxScalpingInterval, s.cycleInterval(true))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestScheduler([]Strategy{&fakeStrategy{name: "gap_short"}}, risk.NewCoordinator(multiConfig(), nil, nil))
	assert.NoError(t, s.Run(ctx))
}
