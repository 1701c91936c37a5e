package scalping

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
	"argus/internal/types"
)

// Name 是该策略在风控与报告中的标识。
const Name = "scalping"

// Strategy 把剥头皮信号生成、限时平仓与执行串成一个可调度的策略实例。
type Strategy struct {
	*strategy.Base
	gen     *Generator
	risk    *risk.Coordinator
	windows *scheduler.Windows
	cfg     config.ScalpingConfig
	multi   config.MultiConfig

	executionDelay time.Duration
	nowFn          func() time.Time
}

// New 构建剥头皮策略实例。
func New(base *strategy.Base, gen *Generator, coord *risk.Coordinator,
	windows *scheduler.Windows, cfg config.ScalpingConfig, multi config.MultiConfig,
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

// Monitor 先强制平掉超时持仓，再做常规核对。限时平仓不依赖窗口或风控
// 门控：只要持有时间超限就必须离场。
func (s *Strategy) Monitor(ctx context.Context) (types.PnLSummary, error) {
	s.closeAged(ctx)
	return s.Base.Monitor(ctx)
}

func (s *Strategy) closeAged(ctx context.Context) {
	maxHold := time.Duration(s.cfg.MaxHoldSeconds) * time.Second
	for _, pos := range s.AgedPositions(maxHold) {
		closed, err := s.Manager().CloseMarket(ctx, pos, "MAX_HOLD_EXCEEDED")
		if err != nil {
			logger.Errorf("scalping: force close %s failed: %v", pos.Symbol, err)
			continue
		}
		s.Untrack(closed)
		logger.Infof("scalping: force closed %s after %.0fs pnl=%.2f", closed.Symbol, closed.HoldSecs, closed.PnL)
	}
}

// GenerateAndExecute 在剥头皮窗口内生成信号并执行。跨策略互斥门控由
// 调度器在分发前通过 AllowScalping 判定。
func (s *Strategy) GenerateAndExecute(ctx context.Context) error {
	now := s.nowFn()
	if !s.windows.InScalpingWindow(now) {
		return nil
	}
	if s.OpenPositionCount() >= s.cfg.MaxPositions {
		return nil
	}

	signals, err := s.gen.Generate(ctx)
	if err != nil {
		logger.Warnf("scalping: signal generation failed: %v", err)
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

		qty := position.SizeByValue(s.multi.PortfolioValue, s.cfg.PositionSizePct, sig.EntryPrice)
		qty = s.risk.AdjustForCorrelation(qty, sig.Sector)
		pos, err := s.Manager().ExecuteWithStop(ctx, sig, qty)
		if err != nil {
			s.risk.ReleaseAdmission(sig.Symbol)
			switch {
			case errors.Is(err, position.ErrInvalidQuantity):
				logger.Debugf("scalping: %s sized to zero, skipping", sig.Symbol)
			case errors.Is(err, exchange.ErrOrderRejected):
				logger.Warnf("scalping: order for %s rejected: %v", sig.Symbol, err)
			default:
				logger.Errorf("scalping: executing %s failed: %v", sig.Symbol, err)
			}
			continue
		}
		s.Track(pos)
		direction := "SHORT"
		if pos.IsLong() {
			direction = "LONG"
		}
		logger.Infof("scalping: opened %s %s qty=%d entry=%.2f stop=%.2f target=%.2f conf=%.2f",
			direction, pos.Symbol, pos.AbsQuantity(), pos.EntryPrice, pos.StopLoss, pos.TargetPrice, sig.Confidence)

		if s.executionDelay > 0 {
			if err := strategy.SleepCtx(ctx, s.executionDelay); err != nil {
				return err
			}
		}
	}
	return nil
}
