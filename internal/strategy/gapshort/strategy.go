package gapshort

import (
	"context"
	"errors"
	"time"

	"argus/internal/config"
	"argus/internal/gateway/exchange"
	"argus/internal/logger"
	"argus/internal/position"
	"argus/internal/risk"
	"argus/internal/scheduler"
	"argus/internal/strategy"
)

// Name 是该策略在风控与报告中的标识。
const Name = "gap_short"

// Strategy 把信号生成、风控准入与执行串成一个可调度的策略实例。
type Strategy struct {
	*strategy.Base
	gen     *Generator
	risk    *risk.Coordinator
	windows *scheduler.Windows
	cfg     config.GapShortConfig
	multi   config.MultiConfig

	executionDelay time.Duration
	nowFn          func() time.Time
}

// New 构建高开做空策略实例。
func New(base *strategy.Base, gen *Generator, coord *risk.Coordinator,
	windows *scheduler.Windows, cfg config.GapShortConfig, multi config.MultiConfig,
	executionDelay time.Duration) *Strategy {
	return &Strategy{
		Base:           base,
		gen:            gen,
		risk:           coord,
		windows:        windows,
		cfg:            cfg,
		multi:          multi,
		executionDelay: executionDelay,
		nowFn:          time.Now,
	}
}

// GenerateAndExecute 在信号窗口内生成做空信号并逐个执行。
func (s *Strategy) GenerateAndExecute(ctx context.Context) error {
	now := s.nowFn()
	if !s.windows.InSignalWindow(now) {
		return nil
	}
	if s.OpenPositionCount() >= s.cfg.MaxPositions {
		return nil
	}

	signals, err := s.gen.Generate(ctx)
	if err != nil {
		logger.Warnf("gap_short: signal generation failed: %v", err)
		return nil
	}

	for _, sig := range signals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.OpenPositionCount() >= s.cfg.MaxPositions {
			break
		}
		if sig.Confidence < s.cfg.MinConfidence {
			continue
		}
		if s.Has(sig.Symbol) {
			continue
		}
		if !s.risk.AdmitNewPosition(Name, sig.Symbol, sig.Sector) {
			continue
		}

		qty := position.SizeByRisk(s.multi.PortfolioValue, s.multi.RiskPerTradePct, sig)
		qty = s.risk.AdjustForCorrelation(qty, sig.Sector)
		pos, err := s.Manager().ExecuteBracket(ctx, sig, qty)
		if err != nil {
			s.risk.ReleaseAdmission(sig.Symbol)
			switch {
			case errors.Is(err, position.ErrInvalidQuantity):
				logger.Debugf("gap_short: %s sized to zero, skipping", sig.Symbol)
			case errors.Is(err, exchange.ErrOrderRejected):
				logger.Warnf("gap_short: order for %s rejected: %v", sig.Symbol, err)
			default:
				logger.Errorf("gap_short: executing %s failed: %v", sig.Symbol, err)
			}
			continue
		}
		s.Track(pos)
		logger.Infof("gap_short: opened SHORT %s qty=%d entry=%.2f stop=%.2f target=%.2f conf=%.2f",
			pos.Symbol, pos.AbsQuantity(), pos.EntryPrice, pos.StopLoss, pos.TargetPrice, sig.Confidence)

		if s.executionDelay > 0 {
			if err := strategy.SleepCtx(ctx, s.executionDelay); err != nil {
				return err
			}
		}
	}
	return nil
}
