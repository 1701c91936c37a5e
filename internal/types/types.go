package types

import (
	"strings"
	"time"
)

// Sector 标记股票所属板块，用于跨策略相关性控制。
type Sector string

const (
	SectorBanking Sector = "BANKING"
	SectorIT      Sector = "IT"
	SectorFMCG    Sector = "FMCG"
	SectorAuto    Sector = "AUTO"
	SectorPharma  Sector = "PHARMA"
	SectorMetals  Sector = "METALS"
	SectorRealty  Sector = "REALTY"
	SectorUnknown Sector = "UNKNOWN"
)

// ParseSector 将任意大小写的板块名归一化，未知板块返回 SectorUnknown。
func ParseSector(s string) Sector {
	switch Sector(strings.ToUpper(strings.TrimSpace(s))) {
	case SectorBanking:
		return SectorBanking
	case SectorIT:
		return SectorIT
	case SectorFMCG:
		return SectorFMCG
	case SectorAuto:
		return SectorAuto
	case SectorPharma:
		return SectorPharma
	case SectorMetals:
		return SectorMetals
	case SectorRealty:
		return SectorRealty
	default:
		return SectorUnknown
	}
}

// SignalType 描述信号方向与成因。
type SignalType string

const (
	SignalShortGap       SignalType = "SHORT_GAP_UP"
	SignalLongBreakout   SignalType = "LONG_BREAKOUT"
	SignalLongImbalance  SignalType = "LONG_BID_ASK_IMBALANCE"
	SignalShortImbalance SignalType = "SHORT_BID_ASK_IMBALANCE"
	SignalLongBounce     SignalType = "LONG_SUPPORT_BOUNCE"
	SignalShortRejection SignalType = "SHORT_RESISTANCE_REJECTION"
)

// IsLong reports whether the signal opens a long position.
func (s SignalType) IsLong() bool {
	return strings.HasPrefix(string(s), "LONG")
}

// TradingSignal 是策略产出的不可变信号记录。
type TradingSignal struct {
	Symbol          string     `json:"symbol"`
	Sector          Sector     `json:"sector"`
	Type            SignalType `json:"type"`
	EntryPrice      float64    `json:"entry_price"`
	StopLoss        float64    `json:"stop_loss"`
	TargetPrice     float64    `json:"target_price"`
	Confidence      float64    `json:"confidence"`
	GapPercentage   float64    `json:"gap_percentage,omitempty"`
	SellingPressure float64    `json:"selling_pressure,omitempty"`
	VolumeRatio     float64    `json:"volume_ratio,omitempty"`
	GeneratedAt     time.Time  `json:"generated_at"`
}

// Position 表示一笔已确认的持仓。Quantity 为带符号数量：正数做多，负数做空。
type Position struct {
	Symbol      string     `json:"symbol"`
	Sector      Sector     `json:"sector"`
	Strategy    string     `json:"strategy"`
	SignalType  SignalType `json:"signal_type"`
	EntryPrice  float64    `json:"entry_price"`
	Quantity    int64      `json:"quantity"`
	StopLoss    float64    `json:"stop_loss"`
	TargetPrice float64    `json:"target_price"`
	EntryTime   time.Time  `json:"entry_time"`
	OrderID     string     `json:"order_id"`
	StopOrderID string     `json:"stop_order_id,omitempty"`
}

// IsLong reports whether the position profits when price rises.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// AbsQuantity returns the unsigned share count.
func (p Position) AbsQuantity() int64 {
	if p.Quantity < 0 {
		return -p.Quantity
	}
	return p.Quantity
}

// ClosedPosition 记录一笔在监控周期中被确认平仓的持仓。
type ClosedPosition struct {
	Symbol    string    `json:"symbol"`
	Strategy  string    `json:"strategy"`
	Reason    string    `json:"reason"`
	PnL       float64   `json:"pnl"`
	ExitPrice float64   `json:"exit_price"`
	ClosedAt  time.Time `json:"closed_at"`
	HoldSecs  float64   `json:"hold_seconds"`
}

// PnLSummary 是一次监控周期的盈亏结果。
type PnLSummary struct {
	Realized   float64          `json:"realized"`
	Unrealized float64          `json:"unrealized"`
	Closed     []ClosedPosition `json:"closed,omitempty"`
	Anomalies  int              `json:"anomalies,omitempty"`
}

// Total returns realized plus unrealized P&L.
func (s PnLSummary) Total() float64 {
	return s.Realized + s.Unrealized
}

// PositionDetail 是对外报告用的持仓视图。
type PositionDetail struct {
	Symbol     string     `json:"symbol"`
	Sector     Sector     `json:"sector"`
	SignalType SignalType `json:"signal_type"`
	EntryPrice float64    `json:"entry_price"`
	Quantity   int64      `json:"quantity"`
	EntryTime  time.Time  `json:"entry_time"`
	HoldSecs   float64    `json:"hold_seconds"`
	OrderID    string     `json:"order_id"`
}

// PerformanceSummary 是单个策略的绩效快照。
type PerformanceSummary struct {
	Strategy        string           `json:"strategy"`
	DailyPnL        float64          `json:"daily_pnl"`
	UnrealizedPnL   float64          `json:"unrealized_pnl"`
	TradesToday     int              `json:"trades_today"`
	ActivePositions int              `json:"active_positions"`
	AvgHoldSecs     float64          `json:"avg_hold_seconds,omitempty"`
	Positions       []PositionDetail `json:"positions,omitempty"`
}

// ComprehensivePerformance 聚合所有策略与组合级风险状态。
type ComprehensivePerformance struct {
	Timestamp      time.Time            `json:"timestamp"`
	TotalDailyPnL  float64              `json:"total_daily_pnl"`
	TotalPositions int                  `json:"total_positions"`
	PortfolioValue float64              `json:"portfolio_value"`
	RiskState      string               `json:"risk_state"`
	Violations     []string             `json:"violations,omitempty"`
	Strategies     []PerformanceSummary `json:"strategies"`
}
