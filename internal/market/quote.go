package market

import "time"

// Snapshot 是单个标的的实时行情快照。
type Snapshot struct {
	Symbol        string    `json:"symbol"`
	CurrentPrice  float64   `json:"current_price"`
	OpenPrice     float64   `json:"open_price"`
	HighPrice     float64   `json:"high_price"`
	LowPrice      float64   `json:"low_price"`
	PreviousClose float64   `json:"previous_close"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// GapPercentage 返回今开相对昨收的跳空百分比，昨收缺失时返回 0。
func (s Snapshot) GapPercentage() float64 {
	if s.PreviousClose <= 0 {
		return 0
	}
	return (s.OpenPrice - s.PreviousClose) / s.PreviousClose * 100
}

// IndexSnapshot 是指数行情快照，仅用于开盘跳空判断。
type IndexSnapshot struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	OpenPrice     float64 `json:"open_price"`
	PreviousClose float64 `json:"previous_close"`
}

// GapPercentage 返回指数开盘跳空百分比，昨收缺失时返回 0。
func (s IndexSnapshot) GapPercentage() float64 {
	if s.PreviousClose <= 0 {
		return 0
	}
	return (s.OpenPrice - s.PreviousClose) / s.PreviousClose * 100
}
