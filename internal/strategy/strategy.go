// Package strategy 承载各策略家族共享的标的域模型与基础设施。策略对
// 调度器的能力契约由 scheduler.Strategy 定义，具体家族在装配时适配。
package strategy

import (
	"argus/internal/config"
	"argus/internal/types"
)

// Instrument 是带板块标签的可交易标的。
type Instrument struct {
	Symbol string
	Sector types.Sector
}

// Universe 是一个策略的标的池。
type Universe []Instrument

// ParseUniverse 把配置条目转为标的池，板块名归一化。
func ParseUniverse(entries []config.UniverseEntry) Universe {
	out := make(Universe, 0, len(entries))
	for _, e := range entries {
		out = append(out, Instrument{Symbol: e.Symbol, Sector: types.ParseSector(e.Sector)})
	}
	return out
}

// Symbols returns the symbol list in universe order.
func (u Universe) Symbols() []string {
	out := make([]string, len(u))
	for i, ins := range u {
		out[i] = ins.Symbol
	}
	return out
}

// SectorOf 返回标的板块，不在池中返回 SectorUnknown。
func (u Universe) SectorOf(symbol string) types.Sector {
	for _, ins := range u {
		if ins.Symbol == symbol {
			return ins.Sector
		}
	}
	return types.SectorUnknown
}

// SectorPreference 是板块偏好权重表，用于置信度的板块分量。
type SectorPreference map[types.Sector]float64

// Weight 返回板块权重，未配置的板块取中性值 0.5。
func (p SectorPreference) Weight(sector types.Sector) float64 {
	if w, ok := p[sector]; ok {
		return w
	}
	return 0.5
}
