package scheduler

import (
	"time"

	"argus/internal/config"
)

// Windows 把配置中的时段定义绑定到交易所时区，提供各策略窗口判断。
type Windows struct {
	loc *time.Location
	cfg config.SessionConfig
}

// NewWindows 构建时段判断器。时区加载失败回退到固定的 IST 偏移。
func NewWindows(cfg config.SessionConfig) *Windows {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return &Windows{loc: loc, cfg: cfg}
}

// Location returns the exchange timezone.
func (w *Windows) Location() *time.Location {
	return w.loc
}

func (w *Windows) minuteOfDay(t time.Time) int {
	local := t.In(w.loc)
	return local.Hour()*60 + local.Minute()
}

func (w *Windows) inRange(t time.Time, startHour, startMin, endHour, endMin int) bool {
	m := w.minuteOfDay(t)
	return m >= startHour*60+startMin && m <= endHour*60+endMin
}

// IsTradingTime 判断是否处于交易时段（工作日 09:15-15:30，按配置）。
func (w *Windows) IsTradingTime(t time.Time) bool {
	local := t.In(w.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return w.inRange(t, w.cfg.OpenHour, w.cfg.OpenMinute, w.cfg.CloseHour, w.cfg.CloseMinute)
}

// InSignalWindow 判断是否处于跳空做空信号生成窗口（开盘到上午截止）。
func (w *Windows) InSignalWindow(t time.Time) bool {
	if !w.IsTradingTime(t) {
		return false
	}
	return w.inRange(t, w.cfg.OpenHour, w.cfg.OpenMinute, w.cfg.SignalEndHour, w.cfg.SignalEndMinute)
}

// InBreakoutWindow 判断是否处于开盘区间突破窗口。
func (w *Windows) InBreakoutWindow(t time.Time) bool {
	if !w.IsTradingTime(t) {
		return false
	}
	return w.inRange(t, w.cfg.BreakoutStartHour, w.cfg.BreakoutStartMinute,
		w.cfg.BreakoutEndHour, w.cfg.BreakoutEndMinute)
}

// InScalpingWindow 判断是否处于剥头皮交易窗口。
func (w *Windows) InScalpingWindow(t time.Time) bool {
	if !w.IsTradingTime(t) {
		return false
	}
	return w.inRange(t, w.cfg.ScalpingStartHour, w.cfg.ScalpingStartMinute,
		w.cfg.ScalpingEndHour, w.cfg.ScalpingEndMinute)
}

// SessionOpen 返回 t 所在交易日的开盘时刻。
func (w *Windows) SessionOpen(t time.Time) time.Time {
	local := t.In(w.loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		w.cfg.OpenHour, w.cfg.OpenMinute, 0, 0, w.loc)
}

// HoursElapsed 返回开盘以来经过的小时数，开盘前返回 0。
func (w *Windows) HoursElapsed(t time.Time) float64 {
	open := w.SessionOpen(t)
	if t.Before(open) {
		return 0
	}
	return t.Sub(open).Hours()
}

// MinutesSinceOpen 返回开盘以来经过的分钟数，开盘前返回 0。
func (w *Windows) MinutesSinceOpen(t time.Time) float64 {
	return w.HoursElapsed(t) * 60
}
