package app

import (
	"context"
	"fmt"
	"time"

	"argus/internal/config"
	"argus/internal/gateway/exchange"
	"argus/internal/gateway/feed"
	"argus/internal/gateway/paper"
	"argus/internal/logger"
	"argus/internal/market"
	"argus/internal/position"
	"argus/internal/risk"
	"argus/internal/scheduler"
	"argus/internal/store/journal"
	"argus/internal/strategy"
	"argus/internal/strategy/breakout"
	"argus/internal/strategy/gapshort"
	"argus/internal/strategy/scalping"
	livehttp "argus/internal/transport/http/live"
)

// buildApp 按配置装配完整的依赖图：数据源 → 券商 → 策略 → 风控 → 调度。
func buildApp(cfg *config.Config) (*App, error) {
	windows := scheduler.NewWindows(cfg.Session)

	provider, err := feed.NewReplayProvider(cfg.Provider.ReplayPath)
	if err != nil {
		return nil, fmt.Errorf("building data provider: %w", err)
	}

	broker := paper.NewBroker(cfg.Broker.StartingCash, quoteFunc(provider))

	limits := strategyLimits(cfg)
	coord := risk.NewCoordinator(cfg.Multi, windows.InSignalWindow, limits)

	execDelay := time.Duration(cfg.Session.ExecutionDelaySeconds) * time.Second
	strategies := buildStrategies(cfg, provider, broker, coord, windows, execDelay)
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies enabled")
	}

	var jr *journal.Journal
	var recorder scheduler.TradeRecorder
	if cfg.Journal.Enabled {
		jr, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("opening trade journal: %w", err)
		}
		recorder = jr
	}

	sched := scheduler.New(cfg.Session, windows, coord, strategies, recorder)

	liveHTTP, err := livehttp.NewServer(cfg.App.HTTPAddr, sched, coord)
	if err != nil {
		return nil, fmt.Errorf("building live http server: %w", err)
	}

	return &App{
		cfg:      cfg,
		sched:    sched,
		liveHTTP: liveHTTP,
		journal:  jr,
	}, nil
}

func strategyLimits(cfg *config.Config) []risk.StrategyLimit {
	var limits []risk.StrategyLimit
	if cfg.GapShort.Enabled {
		limits = append(limits, risk.StrategyLimit{Name: gapshort.Name, MaxPositions: cfg.GapShort.MaxPositions})
	}
	if cfg.Breakout.Enabled {
		limits = append(limits, risk.StrategyLimit{Name: breakout.Name, MaxPositions: cfg.Breakout.MaxPositions})
	}
	if cfg.Scalping.Enabled {
		limits = append(limits, risk.StrategyLimit{Name: scalping.Name, MaxPositions: cfg.Scalping.MaxPositions, Scalping: true})
	}
	return limits
}

func buildStrategies(cfg *config.Config, provider market.DataProvider, broker exchange.Broker,
	coord *risk.Coordinator, windows *scheduler.Windows, execDelay time.Duration) []scheduler.Strategy {
	var out []scheduler.Strategy
	if cfg.GapShort.Enabled {
		base := strategy.NewBase(gapshort.Name, false, position.NewManager(gapshort.Name, broker))
		gen := gapshort.NewGenerator(provider, windows, cfg.GapShort, cfg.Provider.IndexSymbol, cfg.Session.VolumeProjectionHours)
		out = append(out, gapshort.New(base, gen, coord, windows, cfg.GapShort, cfg.Multi, execDelay))
		logger.Infof("app: gap_short strategy enabled (max_positions=%d)", cfg.GapShort.MaxPositions)
	}
	if cfg.Breakout.Enabled {
		base := strategy.NewBase(breakout.Name, false, position.NewManager(breakout.Name, broker))
		gen := breakout.NewGenerator(provider, windows, cfg.Breakout, cfg.Session.VolumeProjectionHours)
		out = append(out, breakout.New(base, gen, coord, windows, cfg.Breakout, cfg.Multi, execDelay))
		logger.Infof("app: breakout strategy enabled (max_positions=%d)", cfg.Breakout.MaxPositions)
	}
	if cfg.Scalping.Enabled {
		base := strategy.NewBase(scalping.Name, true, position.NewManager(scalping.Name, broker))
		gen := scalping.NewGenerator(provider, cfg.Scalping)
		out = append(out, scalping.New(base, gen, coord, windows, cfg.Scalping, cfg.Multi, execDelay))
		logger.Infof("app: scalping strategy enabled (max_hold=%ds)", cfg.Scalping.MaxHoldSeconds)
	}
	return out
}

// quoteFunc 把数据源适配成模拟券商的标价来源。
func quoteFunc(provider market.DataProvider) paper.QuoteFunc {
	return func(ctx context.Context, symbol string) float64 {
		quotes, err := provider.GetQuotes(ctx, []string{symbol})
		if err != nil {
			return 0
		}
		return quotes[symbol].CurrentPrice
	}
}
