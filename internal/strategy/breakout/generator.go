// Package breakout 实现开盘区间突破策略：统计开盘前 N 分钟的高低点区间，
// 在突破窗口内做多放量突破区间上沿的个股。
package breakout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"argus/internal/analysis/indicator"
	"argus/internal/config"
	"argus/internal/logger"
	"argus/internal/market"
	"argus/internal/scheduler"
	"argus/internal/strategy"
	"argus/internal/types"
)

const historyDays = 20

// defaultSectorPreference 偏向动量板块：突破行情在 IT 与金融中延续性更好。
func defaultSectorPreference() strategy.SectorPreference {
	return strategy.SectorPreference{
		types.SectorIT:      1.0,
		types.SectorBanking: 0.9,
		types.SectorAuto:    0.8,
		types.SectorMetals:  0.8,
		types.SectorFMCG:    0.7,
		types.SectorRealty:  0.7,
		types.SectorPharma:  0.6,
	}
}

// openingRange 是开盘区间的高低点。
type openingRange struct {
	high float64
	low  float64
}

func (r openingRange) widthPct() float64 {
	if r.low <= 0 {
		return 0
	}
	return (r.high - r.low) / r.low * 100
}

// Generator 产出开盘区间突破信号。无状态，可并发调用。
type Generator struct {
	provider    market.DataProvider
	windows     *scheduler.Windows
	universe    strategy.Universe
	cfg         config.BreakoutConfig
	sectorPref  strategy.SectorPreference
	volumeHours float64
	nowFn       func() time.Time
}

// NewGenerator 构建信号生成器。
func NewGenerator(provider market.DataProvider, windows *scheduler.Windows,
	cfg config.BreakoutConfig, volumeHours float64) *Generator {
	return &Generator{
		provider:    provider,
		windows:     windows,
		universe:    strategy.ParseUniverse(cfg.Universe),
		cfg:         cfg,
		sectorPref:  defaultSectorPreference(),
		volumeHours: volumeHours,
		nowFn:       time.Now,
	}
}

// SetNowFunc 注入时钟，仅测试使用。
func (g *Generator) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		g.nowFn = fn
	}
}

// Generate 生成按置信度降序排列的做多突破信号。开盘区间尚未形成时返回
// 空集；单个标的的数据缺失只会跳过该标的。
func (g *Generator) Generate(ctx context.Context) ([]types.TradingSignal, error) {
	now := g.nowFn()
	if g.windows.MinutesSinceOpen(now) < float64(g.cfg.OpeningRangeMinutes) {
		logger.Debugf("breakout: opening range not yet formed")
		return nil, nil
	}

	quotes, err := g.provider.GetQuotes(ctx, g.universe.Symbols())
	if err != nil {
		return nil, fmt.Errorf("universe quotes: %w", err)
	}

	hoursElapsed := g.windows.HoursElapsed(now)
	var signals []types.TradingSignal
	for _, ins := range g.universe {
		snap, ok := quotes[ins.Symbol]
		if !ok {
			continue
		}
		intraday, err := g.provider.GetIntradayHistory(ctx, ins.Symbol)
		if err != nil {
			if errors.Is(err, market.ErrDataUnavailable) {
				logger.Debugf("breakout: no intraday history for %s, skipping", ins.Symbol)
				continue
			}
			return signals, fmt.Errorf("intraday history %s: %w", ins.Symbol, err)
		}

		rng, ok := g.openingRangeOf(intraday, now)
		if !ok {
			continue
		}
		widthPct := rng.widthPct()
		if widthPct < g.cfg.MinRangePct || widthPct > g.cfg.MaxRangePct {
			continue
		}

		price := snap.CurrentPrice
		if price <= rng.high || rng.high <= 0 {
			continue
		}
		breakoutPct := (price - rng.high) / rng.high * 100
		if breakoutPct < g.cfg.MinBreakoutPct {
			continue
		}

		daily, err := g.provider.GetDailyHistory(ctx, ins.Symbol, historyDays)
		if err != nil {
			if errors.Is(err, market.ErrDataUnavailable) {
				continue
			}
			return signals, fmt.Errorf("daily history %s: %w", ins.Symbol, err)
		}
		avgVolume := indicator.AvgDailyVolume(daily, historyDays)
		volumeRatio := indicator.VolumeRatio(snap.Volume, avgVolume, hoursElapsed, g.volumeHours)
		if volumeRatio < g.cfg.MinVolumeMultiple {
			continue
		}

		momentum := indicator.Momentum(intraday)
		signals = append(signals, g.buildSignal(ins, rng, price, breakoutPct, volumeRatio, momentum, now))
	}
	strategy.SortSignals(signals)
	return signals, nil
}

// openingRangeOf 取开盘后前 N 分钟的分钟线高低点。
func (g *Generator) openingRangeOf(intraday []market.Candle, now time.Time) (openingRange, bool) {
	open := g.windows.SessionOpen(now)
	cutoff := open.Add(time.Duration(g.cfg.OpeningRangeMinutes) * time.Minute)
	rng := openingRange{}
	found := false
	for _, c := range intraday {
		at := c.OpenAt()
		if at.Before(open) || !at.Before(cutoff) {
			continue
		}
		if !found || c.High > rng.high {
			rng.high = c.High
		}
		if !found || c.Low < rng.low {
			rng.low = c.Low
		}
		found = true
	}
	return rng, found
}

// strengthScore 用突破力度与区间紧致度混合出 0-100 的强度评分。
func (g *Generator) strengthScore(breakoutPct, widthPct float64) float64 {
	decisive := breakoutPct / 5
	if decisive > 1 {
		decisive = 1
	}
	tight := 1 - widthPct/g.cfg.MaxRangePct
	if tight < 0 {
		tight = 0
	}
	return (decisive*0.6 + tight*0.4) * 100
}

func (g *Generator) buildSignal(ins strategy.Instrument, rng openingRange,
	price, breakoutPct, volumeRatio, momentum float64, now time.Time) types.TradingSignal {
	w := g.cfg.Weights
	vrScore := volumeRatio / 3
	if vrScore > 1 {
		vrScore = 1
	}
	strengthScore := g.strengthScore(breakoutPct, rng.widthPct())
	confidence := strategy.Clamp01(
		w.Strength*(strengthScore/100) +
			w.Volume*vrScore +
			w.Breakout*(breakoutPct/10) +
			w.Momentum*(momentum/100) +
			w.Sector*g.sectorPref.Weight(ins.Sector))

	risk := price - rng.low
	return types.TradingSignal{
		Symbol:      ins.Symbol,
		Sector:      ins.Sector,
		Type:        types.SignalLongBreakout,
		EntryPrice:  price,
		StopLoss:    rng.low,
		TargetPrice: price + risk*g.cfg.RiskRewardRatio,
		Confidence:  confidence,
		VolumeRatio: volumeRatio,
		GeneratedAt: now,
	}
}
