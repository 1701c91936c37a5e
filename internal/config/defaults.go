package config

import "strings"

// 默认值常量
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9981"
	defaultAppLogPath  = "data/logs/argus-live.log"

	defaultTimezone              = "Asia/Kolkata"
	defaultMonitoringInterval    = 30
	defaultOffHoursBackoff       = 300
	defaultExecutionDelay        = 1
	defaultVolumeProjectionHours = 6.5

	defaultProviderMode  = "replay"
	defaultReplayPath    = "data/market.json"
	defaultIndexSymbol   = "NIFTY50"
	defaultBrokerMode    = "paper"
	defaultStartingCash  = 1_000_000
	defaultJournalPath   = "data/argus-journal.db"
	defaultRiskPerTrade  = 1.0
	defaultSectorDampen  = 0.7
	defaultPortfolioStop = 4.0
	defaultProfitTarget  = 3.0
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Session.applyDefaults(keys)
	c.Provider.applyDefaults(keys)
	c.Broker.applyDefaults(keys)
	c.GapShort.applyDefaults(keys)
	c.Breakout.applyDefaults(keys)
	c.Scalping.applyDefaults(keys)
	c.Multi.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (s *SessionConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("session.timezone", &s.Timezone, defaultTimezone),
		intFieldDefault("session.open_hour", &s.OpenHour, 9),
		intFieldDefault("session.open_minute", &s.OpenMinute, 15),
		intFieldDefault("session.close_hour", &s.CloseHour, 15),
		intFieldDefault("session.close_minute", &s.CloseMinute, 30),
		intFieldDefault("session.signal_end_hour", &s.SignalEndHour, 10),
		intFieldDefault("session.signal_end_minute", &s.SignalEndMinute, 30),
		intFieldDefault("session.breakout_start_hour", &s.BreakoutStartHour, 9),
		intFieldDefault("session.breakout_start_minute", &s.BreakoutStartMinute, 30),
		intFieldDefault("session.breakout_end_hour", &s.BreakoutEndHour, 11),
		intFieldDefault("session.breakout_end_minute", &s.BreakoutEndMinute, 30),
		intFieldDefault("session.scalping_start_hour", &s.ScalpingStartHour, 9),
		intFieldDefault("session.scalping_start_minute", &s.ScalpingStartMinute, 30),
		intFieldDefault("session.scalping_end_hour", &s.ScalpingEndHour, 15),
		intFieldDefault("session.scalping_end_minute", &s.ScalpingEndMinute, 0),
		intFieldDefault("session.monitoring_interval_seconds", &s.MonitoringIntervalSeconds, defaultMonitoringInterval),
		intFieldDefault("session.off_hours_backoff_seconds", &s.OffHoursBackoffSeconds, defaultOffHoursBackoff),
		intFieldDefault("session.execution_delay_seconds", &s.ExecutionDelaySeconds, defaultExecutionDelay),
		floatFieldDefault("session.volume_projection_hours", &s.VolumeProjectionHours, defaultVolumeProjectionHours),
	)
}

func (p *ProviderConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("provider.mode", &p.Mode, defaultProviderMode),
		stringFieldDefault("provider.replay_path", &p.ReplayPath, defaultReplayPath),
		stringFieldDefault("provider.index_symbol", &p.IndexSymbol, defaultIndexSymbol),
	)
}

func (b *BrokerConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("broker.mode", &b.Mode, defaultBrokerMode),
		floatFieldDefault("broker.starting_cash", &b.StartingCash, defaultStartingCash),
	)
}

func (g *GapShortConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("gap_short.enabled", &g.Enabled, true),
		intFieldDefault("gap_short.max_positions", &g.MaxPositions, 3),
		floatFieldDefault("gap_short.min_index_gap_pct", &g.MinIndexGapPct, 0.5),
		floatFieldDefault("gap_short.min_gap_pct", &g.MinGapPct, 0.5),
		floatFieldDefault("gap_short.min_selling_pressure", &g.MinSellingPressure, 40),
		floatFieldDefault("gap_short.min_volume_ratio", &g.MinVolumeRatio, 1.2),
		floatFieldDefault("gap_short.min_confidence", &g.MinConfidence, 0.6),
		floatFieldDefault("gap_short.stop_loss_pct", &g.StopLossPct, 2.0),
		floatFieldDefault("gap_short.target_pct", &g.TargetPct, 4.0),
		floatFieldDefault("gap_short.weights.pressure", &g.Weights.Pressure, 0.4),
		floatFieldDefault("gap_short.weights.volume", &g.Weights.Volume, 0.3),
		floatFieldDefault("gap_short.weights.gap", &g.Weights.Gap, 0.2),
		floatFieldDefault("gap_short.weights.sector", &g.Weights.Sector, 0.1),
	)
	if len(g.Universe) == 0 {
		g.Universe = defaultEquityUniverse()
	}
}

func (b *BreakoutConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("breakout.enabled", &b.Enabled, true),
		intFieldDefault("breakout.max_positions", &b.MaxPositions, 2),
		intFieldDefault("breakout.opening_range_minutes", &b.OpeningRangeMinutes, 15),
		floatFieldDefault("breakout.min_breakout_pct", &b.MinBreakoutPct, 2.0),
		floatFieldDefault("breakout.min_range_pct", &b.MinRangePct, 1.0),
		floatFieldDefault("breakout.max_range_pct", &b.MaxRangePct, 50.0),
		floatFieldDefault("breakout.min_volume_multiple", &b.MinVolumeMultiple, 1.5),
		floatFieldDefault("breakout.risk_reward_ratio", &b.RiskRewardRatio, 2.0),
		floatFieldDefault("breakout.min_confidence", &b.MinConfidence, 0.65),
		floatFieldDefault("breakout.weights.strength", &b.Weights.Strength, 0.3),
		floatFieldDefault("breakout.weights.volume", &b.Weights.Volume, 0.25),
		floatFieldDefault("breakout.weights.breakout", &b.Weights.Breakout, 0.2),
		floatFieldDefault("breakout.weights.momentum", &b.Weights.Momentum, 0.15),
		floatFieldDefault("breakout.weights.sector", &b.Weights.Sector, 0.1),
	)
	if len(b.Universe) == 0 {
		b.Universe = defaultEquityUniverse()
	}
}

func (s *ScalpingConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("scalping.enabled", &s.Enabled, true),
		intFieldDefault("scalping.max_positions", &s.MaxPositions, 1),
		floatFieldDefault("scalping.position_size_pct", &s.PositionSizePct, 5.0),
		floatFieldDefault("scalping.min_imbalance_ratio", &s.MinImbalanceRatio, 2.5),
		intFieldDefault("scalping.depth_levels", &s.DepthLevels, 3),
		int64FieldDefault("scalping.min_volume_at_level", &s.MinVolumeAtLevel, 500),
		int64FieldDefault("scalping.min_trade_volume", &s.MinTradeVolume, 1000),
		floatFieldDefault("scalping.tick_size", &s.TickSize, 0.05),
		intFieldDefault("scalping.min_spread_ticks", &s.MinSpreadTicks, 1),
		intFieldDefault("scalping.max_spread_ticks", &s.MaxSpreadTicks, 4),
		intFieldDefault("scalping.stop_ticks", &s.StopTicks, 2),
		intFieldDefault("scalping.target_ticks", &s.TargetTicks, 3),
		intFieldDefault("scalping.max_hold_seconds", &s.MaxHoldSeconds, 45),
		intFieldDefault("scalping.cooldown_seconds", &s.CooldownSeconds, 120),
		floatFieldDefault("scalping.min_confidence", &s.MinConfidence, 0.80),
		floatFieldDefault("scalping.weights.depth", &s.Weights.Depth, 0.25),
		floatFieldDefault("scalping.weights.imbalance", &s.Weights.Imbalance, 0.35),
		floatFieldDefault("scalping.weights.volume", &s.Weights.Volume, 0.25),
		floatFieldDefault("scalping.weights.proximity", &s.Weights.Proximity, 0.15),
	)
	if len(s.Universe) == 0 {
		s.Universe = defaultScalpingUniverse()
	}
}

func (m *MultiConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("multi.portfolio_value", &m.PortfolioValue, defaultStartingCash),
		floatFieldDefault("multi.risk_per_trade_pct", &m.RiskPerTradePct, defaultRiskPerTrade),
		intFieldDefault("multi.max_total_positions", &m.MaxTotalPositions, 6),
		intFieldDefault("multi.max_positions_per_sector", &m.MaxPositionsPerSector, 2),
		floatFieldDefault("multi.portfolio_stop_loss_pct", &m.PortfolioStopLossPct, defaultPortfolioStop),
		floatFieldDefault("multi.daily_profit_target_pct", &m.DailyProfitTargetPct, defaultProfitTarget),
		boolFieldDefault("multi.allow_scalping_during_signals", &m.AllowScalpingDuringSignals, false),
		intFieldDefault("multi.cross_strategy_cooldown_minutes", &m.CrossStrategyCooldownMinutes, 5),
		floatFieldDefault("multi.sector_dampening", &m.SectorDampening, defaultSectorDampen),
	)
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	if j == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("journal.enabled", &j.Enabled, true),
		stringFieldDefault("journal.path", &j.Path, defaultJournalPath),
	)
}

func defaultEquityUniverse() []UniverseEntry {
	return []UniverseEntry{
		{Symbol: "RELIANCE", Sector: "METALS"},
		{Symbol: "TCS", Sector: "IT"},
		{Symbol: "INFY", Sector: "IT"},
		{Symbol: "WIPRO", Sector: "IT"},
		{Symbol: "HDFCBANK", Sector: "BANKING"},
		{Symbol: "ICICIBANK", Sector: "BANKING"},
		{Symbol: "SBIN", Sector: "BANKING"},
		{Symbol: "ITC", Sector: "FMCG"},
		{Symbol: "HINDUNILVR", Sector: "FMCG"},
		{Symbol: "NESTLEIND", Sector: "FMCG"},
		{Symbol: "SUNPHARMA", Sector: "PHARMA"},
		{Symbol: "DRREDDY", Sector: "PHARMA"},
		{Symbol: "TATAMOTORS", Sector: "AUTO"},
		{Symbol: "MARUTI", Sector: "AUTO"},
		{Symbol: "TATASTEEL", Sector: "METALS"},
		{Symbol: "JSWSTEEL", Sector: "METALS"},
		{Symbol: "DLF", Sector: "REALTY"},
	}
}

func defaultScalpingUniverse() []UniverseEntry {
	return []UniverseEntry{
		{Symbol: "RELIANCE", Sector: "METALS"},
		{Symbol: "HDFCBANK", Sector: "BANKING"},
		{Symbol: "ICICIBANK", Sector: "BANKING"},
		{Symbol: "TCS", Sector: "IT"},
		{Symbol: "INFY", Sector: "IT"},
	}
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func int64FieldDefault(key string, target *int64, def int64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
