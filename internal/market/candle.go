package market

import "time"

// Candle 表示一根日内或日线 K 线。OpenTime 为毫秒时间戳。
type Candle struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// OpenAt returns the candle open time as time.Time.
func (c Candle) OpenAt() time.Time {
	return time.UnixMilli(c.OpenTime)
}

// IsRed reports whether the candle closed below its open.
func (c Candle) IsRed() bool {
	return c.Close < c.Open
}

// Closes extracts the close series in candle order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the volume series in candle order.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
