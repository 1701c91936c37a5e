// Package gapshort 实现高开做空策略：指数跳空高开时，在信号窗口内寻找
// 高开且抛压沉重的个股做空。
package gapshort

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

// defaultSectorPreference 偏向防御性板块：高开回落在消费类中更常见。
func defaultSectorPreference() strategy.SectorPreference {
	return strategy.SectorPreference{
		types.SectorFMCG:    1.0,
		types.SectorIT:      0.9,
		types.SectorPharma:  0.7,
		types.SectorBanking: 0.6,
		types.SectorMetals:  0.5,
		types.SectorRealty:  0.4,
		types.SectorAuto:    0.3,
	}
}

// Generator 产出高开做空信号。无状态，可并发调用。
type Generator struct {
	provider    market.DataProvider
	windows     *scheduler.Windows
	universe    strategy.Universe
	cfg         config.GapShortConfig
	indexSymbol string
	sectorPref  strategy.SectorPreference
	volumeHours float64
	nowFn       func() time.Time
}

// NewGenerator 构建信号生成器。
func NewGenerator(provider market.DataProvider, windows *scheduler.Windows,
	cfg config.GapShortConfig, indexSymbol string, volumeHours float64) *Generator {
	return &Generator{
		provider:    provider,
		windows:     windows,
		universe:    strategy.ParseUniverse(cfg.Universe),
		cfg:         cfg,
		indexSymbol: indexSymbol,
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

// Generate 生成按置信度降序排列的做空信号。指数未跳空高开时返回空集。
// 单个标的的数据缺失只会跳过该标的。
func (g *Generator) Generate(ctx context.Context) ([]types.TradingSignal, error) {
	idx, err := g.provider.GetIndexSnapshot(ctx, g.indexSymbol)
	if err != nil {
		return nil, fmt.Errorf("index snapshot %s: %w", g.indexSymbol, err)
	}
	indexGap := idx.GapPercentage()
	if indexGap <= 0 || indexGap < g.cfg.MinIndexGapPct {
		logger.Debugf("gap_short: index gap %.2f%% below threshold, no signals", indexGap)
		return nil, nil
	}

	quotes, err := g.provider.GetQuotes(ctx, g.universe.Symbols())
	if err != nil {
		return nil, fmt.Errorf("universe quotes: %w", err)
	}

	now := g.nowFn()
	hoursElapsed := g.windows.HoursElapsed(now)
	var signals []types.TradingSignal
	for _, ins := range g.universe {
		snap, ok := quotes[ins.Symbol]
		if !ok {
			continue
		}
		gap := snap.GapPercentage()
		if gap < g.cfg.MinGapPct {
			continue
		}

		daily, err := g.provider.GetDailyHistory(ctx, ins.Symbol, historyDays)
		if err != nil {
			if errors.Is(err, market.ErrDataUnavailable) {
				logger.Debugf("gap_short: no daily history for %s, skipping", ins.Symbol)
				continue
			}
			return signals, fmt.Errorf("daily history %s: %w", ins.Symbol, err)
		}

		pressure := indicator.SellingPressure(daily, indicator.PressureSettings{})
		if pressure < g.cfg.MinSellingPressure {
			continue
		}
		avgVolume := indicator.AvgDailyVolume(daily, historyDays)
		volumeRatio := indicator.VolumeRatio(snap.Volume, avgVolume, hoursElapsed, g.volumeHours)
		if volumeRatio < g.cfg.MinVolumeRatio {
			continue
		}

		signals = append(signals, g.buildSignal(ins, snap, gap, pressure, volumeRatio, now))
	}
	strategy.SortSignals(signals)
	return signals, nil
}

func (g *Generator) buildSignal(ins strategy.Instrument, snap market.Snapshot,
	gap, pressure, volumeRatio float64, now time.Time) types.TradingSignal {
	w := g.cfg.Weights
	vrScore := volumeRatio / 3
	if vrScore > 1 {
		vrScore = 1
	}
	confidence := strategy.Clamp01(
		w.Pressure*(pressure/100) +
			w.Volume*vrScore +
			w.Gap*(gap/5) +
			w.Sector*g.sectorPref.Weight(ins.Sector))

	entry := snap.CurrentPrice
	return types.TradingSignal{
		Symbol:          ins.Symbol,
		Sector:          ins.Sector,
		Type:            types.SignalShortGap,
		EntryPrice:      entry,
		StopLoss:        entry * (1 + g.cfg.StopLossPct/100),
		TargetPrice:     entry * (1 - g.cfg.TargetPct/100),
		Confidence:      confidence,
		GapPercentage:   gap,
		SellingPressure: pressure,
		VolumeRatio:     volumeRatio,
		GeneratedAt:     now,
	}
}
