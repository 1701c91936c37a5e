// Package app 负责应用级编排：配置 → 依赖装配 → 启动调度循环与状态服务。
package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"argus/internal/config"
	"argus/internal/logger"
	"argus/internal/scheduler"
	"argus/internal/store/journal"
	livehttp "argus/internal/transport/http/live"
)

// App 持有装配完成的应用依赖。
type App struct {
	cfg      *config.Config
	sched    *scheduler.Scheduler
	liveHTTP *livehttp.Server
	journal  *journal.Journal
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildApp(cfg)
}

// Run 启动调度循环与状态服务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.InfoBlock(a.startupSummary())

	group, ctx := errgroup.WithContext(ctx)

	if a.liveHTTP != nil {
		group.Go(func() error {
			if err := a.liveHTTP.Start(ctx); err != nil {
				return fmt.Errorf("live http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		defer a.closeJournal()
		return a.sched.Run(ctx)
	})

	return group.Wait()
}

// Scheduler exposes the orchestration loop (for testing/replay harnesses).
func (a *App) Scheduler() *scheduler.Scheduler {
	if a == nil {
		return nil
	}
	return a.sched
}

func (a *App) closeJournal() {
	if a.journal == nil {
		return
	}
	if err := a.journal.Close(); err != nil {
		logger.Warnf("app: closing journal failed: %v", err)
	}
}

func (a *App) startupSummary() string {
	lines := []string{
		"==== argus startup ====",
		fmt.Sprintf("env: %s", a.cfg.App.Env),
		fmt.Sprintf("timezone: %s", a.cfg.Session.Timezone),
		fmt.Sprintf("http: %s", a.cfg.App.HTTPAddr),
		fmt.Sprintf("portfolio value: %.0f", a.cfg.Multi.PortfolioValue),
		fmt.Sprintf("portfolio stop: %.1f%% / profit target: %.1f%%",
			a.cfg.Multi.PortfolioStopLossPct, a.cfg.Multi.DailyProfitTargetPct),
	}
	return strings.Join(lines, "\n")
}
