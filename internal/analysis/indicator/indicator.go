// Package indicator 提供信号生成所需的技术指标：抛压评分、量比与动量。
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"argus/internal/market"
)

// PressureSettings 控制抛压评分的回看窗口与 RSI 参数。
type PressureSettings struct {
	LookbackDays int
	RSIPeriod    int
}

func (s *PressureSettings) normalize() {
	if s.LookbackDays <= 0 {
		s.LookbackDays = 5
	}
	if s.RSIPeriod <= 0 {
		s.RSIPeriod = 14
	}
}

// SellingPressure 用最近 N 日日线混合出 0-100 的抛压评分。
// 分量：价格跌幅 30%、阴线占比 20%、量能趋势 20%、收盘走低占比 20%、
// 反向 RSI 10%。数据不足时各分量按可得部分计算，RSI 缺失按中性 50。
func SellingPressure(candles []market.Candle, cfg PressureSettings) float64 {
	cfg.normalize()
	if len(candles) == 0 {
		return 0
	}
	window := candles
	if len(window) > cfg.LookbackDays {
		window = window[len(window)-cfg.LookbackDays:]
	}

	first, last := window[0], window[len(window)-1]
	priceDecline := 0.0
	if first.Close > 0 {
		priceDecline = (last.Close - first.Close) / first.Close
	}

	red := 0
	lower := 0
	for i, c := range window {
		if c.IsRed() {
			red++
		}
		if i > 0 && c.Close < window[i-1].Close {
			lower++
		}
	}
	redRatio := float64(red) / float64(len(window))
	lowerRatio := 0.0
	if len(window) > 1 {
		lowerRatio = float64(lower) / float64(len(window)-1)
	}

	volumeTrend := 0.0
	half := len(window) / 2
	if half > 0 {
		early := meanVolume(window[:half])
		late := meanVolume(window[len(window)-half:])
		if early > 0 {
			volumeTrend = (late - early) / early
		}
	}

	rsi := RSI(market.Closes(candles), cfg.RSIPeriod)

	score := (-priceDecline * 100 * 0.3) +
		(redRatio * 100 * 0.2) +
		(volumeTrend * 20 * 0.2) +
		(lowerRatio * 100 * 0.2) +
		((100 - rsi) * 0.1)
	return clamp(score, 0, 100)
}

// RSI 返回收盘价序列的最新 RSI 值，序列不足时返回中性 50。
func RSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = 14
	}
	if len(closes) <= period {
		return 50
	}
	series := sanitizeSeries(talib.Rsi(closes, period))
	v := lastValid(series)
	if v == 0 {
		return 50
	}
	return v
}

// VolumeRatio 将当日已成交量按剩余交易时间外推成全日量，再与 20 日均量
// 相比。hoursElapsed 下限 0.5，避免开盘初期的爆炸性外推。
func VolumeRatio(currentVolume int64, avgDailyVolume float64, hoursElapsed, sessionHours float64) float64 {
	if avgDailyVolume <= 0 {
		return 0
	}
	if sessionHours <= 0 {
		sessionHours = 6.5
	}
	if hoursElapsed < 0.5 {
		hoursElapsed = 0.5
	}
	projected := float64(currentVolume) * (sessionHours / hoursElapsed)
	return round4(projected / avgDailyVolume)
}

// AvgDailyVolume 返回最近 days 根日线的均量。
func AvgDailyVolume(candles []market.Candle, days int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if days > 0 && len(candles) > days {
		candles = candles[len(candles)-days:]
	}
	return meanVolume(candles)
}

// Momentum 把收盘价相对 SMA5 的偏离映射为 0-100 的动量评分，50 为中性。
func Momentum(candles []market.Candle) float64 {
	closes := market.Closes(candles)
	if len(closes) < 5 {
		return 50
	}
	sma := sanitizeSeries(talib.Sma(closes, 5))
	ref := lastValid(sma)
	if ref == 0 {
		return 50
	}
	last := closes[len(closes)-1]
	score := (last-ref)/ref*100*10 + 50
	return clamp(score, 0, 100)
}

func meanVolume(candles []market.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	var sum float64
	for _, c := range candles {
		sum += c.Volume
	}
	return sum / float64(len(candles))
}

func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, round4(v))
	}
	return out
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
