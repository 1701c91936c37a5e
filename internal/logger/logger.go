// Package logger 是基于 log/slog 的进程级日志门面。输出目标与级别可在
// 运行中切换，各包直接使用包级函数记录。
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"log/slog"
)

// level 的零值即 slog.LevelInfo，无需显式初始化。
var (
	level slog.LevelVar
	mu    sync.RWMutex
	base  = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
)

// SetOutput 把后续日志写入 w。传 nil 恢复标准输出。
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	base = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level}))
	mu.Unlock()
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// SetLevel 按名称切换日志级别，未知名称回落到 info。
func SetLevel(name string) {
	lv, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		lv = slog.LevelInfo
	}
	level.Set(lv)
}

func active() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debugf(format string, v ...any) {
	active().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	active().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	active().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	active().Error(fmt.Sprintf(format, v...))
}

// InfoBlock 把多行文本逐行输出为独立的 info 记录，空行跳过。
func InfoBlock(block string) {
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		if line != "" {
			Infof("%s", line)
		}
	}
}
