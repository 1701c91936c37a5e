package config

import (
	"fmt"
	"strings"
	"time"
)

// validate 对配置进行基础校验。校验失败仅在启动时致命。
func validate(c *Config) error {
	if err := c.Session.validate(); err != nil {
		return err
	}
	if err := c.Provider.validate(); err != nil {
		return err
	}
	if err := c.Broker.validate(); err != nil {
		return err
	}
	if err := c.GapShort.validate(); err != nil {
		return err
	}
	if err := c.Breakout.validate(); err != nil {
		return err
	}
	if err := c.Scalping.validate(); err != nil {
		return err
	}
	if err := c.Multi.validate(); err != nil {
		return err
	}
	return nil
}

func (s *SessionConfig) validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("session.timezone invalid: %w", err)
	}
	if s.OpenHour < 0 || s.OpenHour > 23 || s.CloseHour < 0 || s.CloseHour > 23 {
		return fmt.Errorf("session open/close hour must be in [0,23]")
	}
	if s.OpenMinute < 0 || s.OpenMinute > 59 || s.CloseMinute < 0 || s.CloseMinute > 59 {
		return fmt.Errorf("session open/close minute must be in [0,59]")
	}
	open := s.OpenHour*60 + s.OpenMinute
	end := s.CloseHour*60 + s.CloseMinute
	if open >= end {
		return fmt.Errorf("session open %02d:%02d must precede close %02d:%02d",
			s.OpenHour, s.OpenMinute, s.CloseHour, s.CloseMinute)
	}
	signalEnd := s.SignalEndHour*60 + s.SignalEndMinute
	if signalEnd <= open || signalEnd > end {
		return fmt.Errorf("session signal window end must fall inside trading hours")
	}
	if s.MonitoringIntervalSeconds <= 0 {
		return fmt.Errorf("session.monitoring_interval_seconds must be > 0")
	}
	if s.OffHoursBackoffSeconds <= 0 {
		return fmt.Errorf("session.off_hours_backoff_seconds must be > 0")
	}
	return nil
}

func (p *ProviderConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(p.Mode))
	if mode != "replay" {
		return fmt.Errorf("provider.mode only supports 'replay', got %s", p.Mode)
	}
	if strings.TrimSpace(p.ReplayPath) == "" {
		return fmt.Errorf("provider.replay_path cannot be empty")
	}
	if strings.TrimSpace(p.IndexSymbol) == "" {
		return fmt.Errorf("provider.index_symbol cannot be empty")
	}
	return nil
}

func (b *BrokerConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(b.Mode))
	if mode != "paper" {
		return fmt.Errorf("broker.mode only supports 'paper', got %s", b.Mode)
	}
	if b.StartingCash <= 0 {
		return fmt.Errorf("broker.starting_cash must be > 0")
	}
	return nil
}

func (g *GapShortConfig) validate() error {
	if !g.Enabled {
		return nil
	}
	if g.MaxPositions <= 0 {
		return fmt.Errorf("gap_short.max_positions must be > 0")
	}
	if g.StopLossPct <= 0 || g.TargetPct <= 0 {
		return fmt.Errorf("gap_short stop_loss_pct and target_pct must be > 0")
	}
	if g.MinConfidence < 0 || g.MinConfidence > 1 {
		return fmt.Errorf("gap_short.min_confidence must be in [0,1]")
	}
	return validateUniverse("gap_short", g.Universe)
}

func (b *BreakoutConfig) validate() error {
	if !b.Enabled {
		return nil
	}
	if b.MaxPositions <= 0 {
		return fmt.Errorf("breakout.max_positions must be > 0")
	}
	if b.OpeningRangeMinutes <= 0 {
		return fmt.Errorf("breakout.opening_range_minutes must be > 0")
	}
	if b.MinRangePct >= b.MaxRangePct {
		return fmt.Errorf("breakout.min_range_pct must be < max_range_pct")
	}
	if b.RiskRewardRatio <= 0 {
		return fmt.Errorf("breakout.risk_reward_ratio must be > 0")
	}
	if b.MinConfidence < 0 || b.MinConfidence > 1 {
		return fmt.Errorf("breakout.min_confidence must be in [0,1]")
	}
	return validateUniverse("breakout", b.Universe)
}

func (s *ScalpingConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if s.MaxPositions <= 0 {
		return fmt.Errorf("scalping.max_positions must be > 0")
	}
	if s.TickSize <= 0 {
		return fmt.Errorf("scalping.tick_size must be > 0")
	}
	if s.MinSpreadTicks <= 0 || s.MaxSpreadTicks < s.MinSpreadTicks {
		return fmt.Errorf("scalping spread tick bounds invalid (min=%d max=%d)", s.MinSpreadTicks, s.MaxSpreadTicks)
	}
	if s.MinImbalanceRatio <= 1 {
		return fmt.Errorf("scalping.min_imbalance_ratio must be > 1")
	}
	if s.MaxHoldSeconds <= 0 {
		return fmt.Errorf("scalping.max_hold_seconds must be > 0")
	}
	if s.PositionSizePct <= 0 || s.PositionSizePct > 100 {
		return fmt.Errorf("scalping.position_size_pct must be in (0,100]")
	}
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("scalping.min_confidence must be in [0,1]")
	}
	return validateUniverse("scalping", s.Universe)
}

func (m *MultiConfig) validate() error {
	if m.PortfolioValue <= 0 {
		return fmt.Errorf("multi.portfolio_value must be > 0")
	}
	if m.RiskPerTradePct <= 0 || m.RiskPerTradePct > 100 {
		return fmt.Errorf("multi.risk_per_trade_pct must be in (0,100]")
	}
	if m.MaxTotalPositions <= 0 {
		return fmt.Errorf("multi.max_total_positions must be > 0")
	}
	if m.MaxPositionsPerSector <= 0 {
		return fmt.Errorf("multi.max_positions_per_sector must be > 0")
	}
	if m.SectorDampening <= 0 || m.SectorDampening > 1 {
		return fmt.Errorf("multi.sector_dampening must be in (0,1]")
	}
	return nil
}

func validateUniverse(section string, universe []UniverseEntry) error {
	if len(universe) == 0 {
		return fmt.Errorf("%s.universe cannot be empty", section)
	}
	seen := make(map[string]bool, len(universe))
	for _, entry := range universe {
		sym := strings.TrimSpace(entry.Symbol)
		if sym == "" {
			return fmt.Errorf("%s.universe contains entry without symbol", section)
		}
		if seen[sym] {
			return fmt.Errorf("%s.universe contains duplicate symbol %s", section, sym)
		}
		seen[sym] = true
	}
	return nil
}
