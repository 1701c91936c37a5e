package config

import "strings"

// Config 是 Argus 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Session  SessionConfig  `toml:"session"`
	Provider ProviderConfig `toml:"provider"`
	Broker   BrokerConfig   `toml:"broker"`
	GapShort GapShortConfig `toml:"gap_short"`
	Breakout BreakoutConfig `toml:"breakout"`
	Scalping ScalpingConfig `toml:"scalping"`
	Multi    MultiConfig    `toml:"multi"`
	Journal  JournalConfig  `toml:"journal"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// SessionConfig 描述交易时段与各策略的时间窗口（交易所本地时区）。
type SessionConfig struct {
	Timezone string `toml:"timezone"`

	OpenHour    int `toml:"open_hour"`
	OpenMinute  int `toml:"open_minute"`
	CloseHour   int `toml:"close_hour"`
	CloseMinute int `toml:"close_minute"`

	SignalEndHour   int `toml:"signal_end_hour"`
	SignalEndMinute int `toml:"signal_end_minute"`

	BreakoutStartHour   int `toml:"breakout_start_hour"`
	BreakoutStartMinute int `toml:"breakout_start_minute"`
	BreakoutEndHour     int `toml:"breakout_end_hour"`
	BreakoutEndMinute   int `toml:"breakout_end_minute"`

	ScalpingStartHour   int `toml:"scalping_start_hour"`
	ScalpingStartMinute int `toml:"scalping_start_minute"`
	ScalpingEndHour     int `toml:"scalping_end_hour"`
	ScalpingEndMinute   int `toml:"scalping_end_minute"`

	MonitoringIntervalSeconds int `toml:"monitoring_interval_seconds"`
	OffHoursBackoffSeconds    int `toml:"off_hours_backoff_seconds"`
	ExecutionDelaySeconds     int `toml:"execution_delay_seconds"`

	// VolumeProjectionHours 是量比外推使用的全日小时数。
	VolumeProjectionHours float64 `toml:"volume_projection_hours"`
}

type ProviderConfig struct {
	Mode        string `toml:"mode"`
	ReplayPath  string `toml:"replay_path"`
	IndexSymbol string `toml:"index_symbol"`
}

type BrokerConfig struct {
	Mode         string  `toml:"mode"`
	StartingCash float64 `toml:"starting_cash"`
}

// UniverseEntry 是可交易标的及其板块标签。
type UniverseEntry struct {
	Symbol string `toml:"symbol"`
	Sector string `toml:"sector"`
}

// GapWeights 是跳空做空策略置信度的线性权重。
type GapWeights struct {
	Pressure float64 `toml:"pressure"`
	Volume   float64 `toml:"volume"`
	Gap      float64 `toml:"gap"`
	Sector   float64 `toml:"sector"`
}

type GapShortConfig struct {
	Enabled            bool            `toml:"enabled"`
	MaxPositions       int             `toml:"max_positions"`
	MinIndexGapPct     float64         `toml:"min_index_gap_pct"`
	MinGapPct          float64         `toml:"min_gap_pct"`
	MinSellingPressure float64         `toml:"min_selling_pressure"`
	MinVolumeRatio     float64         `toml:"min_volume_ratio"`
	MinConfidence      float64         `toml:"min_confidence"`
	StopLossPct        float64         `toml:"stop_loss_pct"`
	TargetPct          float64         `toml:"target_pct"`
	Weights            GapWeights      `toml:"weights"`
	Universe           []UniverseEntry `toml:"universe"`
}

// BreakoutWeights 是开盘区间突破策略置信度的线性权重。
type BreakoutWeights struct {
	Strength float64 `toml:"strength"`
	Volume   float64 `toml:"volume"`
	Breakout float64 `toml:"breakout"`
	Momentum float64 `toml:"momentum"`
	Sector   float64 `toml:"sector"`
}

type BreakoutConfig struct {
	Enabled             bool            `toml:"enabled"`
	MaxPositions        int             `toml:"max_positions"`
	OpeningRangeMinutes int             `toml:"opening_range_minutes"`
	MinBreakoutPct      float64         `toml:"min_breakout_pct"`
	MinRangePct         float64         `toml:"min_range_pct"`
	MaxRangePct         float64         `toml:"max_range_pct"`
	MinVolumeMultiple   float64         `toml:"min_volume_multiple"`
	RiskRewardRatio     float64         `toml:"risk_reward_ratio"`
	MinConfidence       float64         `toml:"min_confidence"`
	Weights             BreakoutWeights `toml:"weights"`
	Universe            []UniverseEntry `toml:"universe"`
}

// ScalpingWeights 是订单簿剥头皮策略置信度的线性权重。
type ScalpingWeights struct {
	Depth     float64 `toml:"depth"`
	Imbalance float64 `toml:"imbalance"`
	Volume    float64 `toml:"volume"`
	Proximity float64 `toml:"proximity"`
}

type ScalpingConfig struct {
	Enabled           bool            `toml:"enabled"`
	MaxPositions      int             `toml:"max_positions"`
	PositionSizePct   float64         `toml:"position_size_pct"`
	MinImbalanceRatio float64         `toml:"min_imbalance_ratio"`
	DepthLevels       int             `toml:"depth_levels"`
	MinVolumeAtLevel  int64           `toml:"min_volume_at_level"`
	MinTradeVolume    int64           `toml:"min_trade_volume"`
	TickSize          float64         `toml:"tick_size"`
	MinSpreadTicks    int             `toml:"min_spread_ticks"`
	MaxSpreadTicks    int             `toml:"max_spread_ticks"`
	StopTicks         int             `toml:"stop_ticks"`
	TargetTicks       int             `toml:"target_ticks"`
	MaxHoldSeconds    int             `toml:"max_hold_seconds"`
	CooldownSeconds   int             `toml:"cooldown_seconds"`
	MinConfidence     float64         `toml:"min_confidence"`
	Weights           ScalpingWeights `toml:"weights"`
	Universe          []UniverseEntry `toml:"universe"`
}

// MultiConfig 是组合级风险与跨策略协调参数。
type MultiConfig struct {
	PortfolioValue               float64 `toml:"portfolio_value"`
	RiskPerTradePct              float64 `toml:"risk_per_trade_pct"`
	MaxTotalPositions            int     `toml:"max_total_positions"`
	MaxPositionsPerSector        int     `toml:"max_positions_per_sector"`
	PortfolioStopLossPct         float64 `toml:"portfolio_stop_loss_pct"`
	DailyProfitTargetPct         float64 `toml:"daily_profit_target_pct"`
	AllowScalpingDuringSignals   bool    `toml:"allow_scalping_during_signals"`
	CrossStrategyCooldownMinutes int     `toml:"cross_strategy_cooldown_minutes"`
	SectorDampening              float64 `toml:"sector_dampening"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
