// Package scalping 实现订单簿驱动的剥头皮策略：利用买卖盘失衡与支撑阻力
// 反弹捕捉 tick 级波动，持仓以秒计并强制限时平仓。
package scalping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"argus/internal/analysis/micro"
	"argus/internal/config"
	"argus/internal/logger"
	"argus/internal/market"
	"argus/internal/strategy"
	"argus/internal/types"
)

// bounceProximityPct 是识别支撑/阻力反弹的价格接近度（百分比）。
const bounceProximityPct = 0.1

// confidenceProximityPct 是置信度接近度加分的判距（百分比）。
const confidenceProximityPct = 0.2

// Generator 产出剥头皮信号。每个实例自持按标的的冷却表，可并发调用。
type Generator struct {
	provider market.DataProvider
	universe strategy.Universe
	cfg      config.ScalpingConfig
	nowFn    func() time.Time

	mu         sync.Mutex
	lastSignal map[string]time.Time
}

// NewGenerator 构建信号生成器。
func NewGenerator(provider market.DataProvider, cfg config.ScalpingConfig) *Generator {
	return &Generator{
		provider:   provider,
		universe:   strategy.ParseUniverse(cfg.Universe),
		cfg:        cfg,
		nowFn:      time.Now,
		lastSignal: make(map[string]time.Time),
	}
}

// SetNowFunc 注入时钟，仅测试使用。
func (g *Generator) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		g.nowFn = fn
	}
}

func (g *Generator) inCooldown(symbol string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.lastSignal[symbol]
	if !ok {
		return false
	}
	return now.Sub(last) < time.Duration(g.cfg.CooldownSeconds)*time.Second
}

func (g *Generator) markEmitted(symbol string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSignal[symbol] = now
}

// Generate 扫描标的池的订单簿并生成按置信度降序排列的信号。冷却期内的
// 标的不再产出；单个标的的数据缺失只会跳过该标的。
func (g *Generator) Generate(ctx context.Context) ([]types.TradingSignal, error) {
	now := g.nowFn()
	var signals []types.TradingSignal
	for _, ins := range g.universe {
		if err := ctx.Err(); err != nil {
			return signals, err
		}
		if g.inCooldown(ins.Symbol, now) {
			continue
		}
		book, err := g.provider.GetOrderBook(ctx, ins.Symbol)
		if err != nil {
			if errors.Is(err, market.ErrDataUnavailable) {
				logger.Debugf("scalping: no order book for %s, skipping", ins.Symbol)
				continue
			}
			return signals, fmt.Errorf("order book %s: %w", ins.Symbol, err)
		}

		sig, ok := g.evaluate(ins, book, now)
		if !ok {
			continue
		}
		g.markEmitted(ins.Symbol, now)
		signals = append(signals, sig)
	}
	strategy.SortSignals(signals)
	return signals, nil
}

// evaluate 对单个订单簿做完整判定：适用性检查、价差 tick 界限、失衡方向
// 或支撑阻力反弹，最后混合置信度。
func (g *Generator) evaluate(ins strategy.Instrument, book *market.OrderBook, now time.Time) (types.TradingSignal, bool) {
	cond := micro.CheckConditions(book, g.thresholds())
	if !cond.Suitable() {
		return types.TradingSignal{}, false
	}

	bid, okB := book.BestBid()
	ask, okA := book.BestAsk()
	if !okB || !okA {
		return types.TradingSignal{}, false
	}
	spreadTicks := (ask.Price - bid.Price) / g.cfg.TickSize
	if spreadTicks < float64(g.cfg.MinSpreadTicks) || spreadTicks > float64(g.cfg.MaxSpreadTicks) {
		return types.TradingSignal{}, false
	}

	ratio := micro.Imbalance(book, g.cfg.DepthLevels)
	support, resistance := micro.SupportResistance(book, g.cfg.MinVolumeAtLevel)

	var sigType types.SignalType
	var entry float64
	switch {
	case ratio >= g.cfg.MinImbalanceRatio:
		sigType = types.SignalLongImbalance
		entry = ask.Price
	case ratio > 0 && ratio <= 1/g.cfg.MinImbalanceRatio:
		sigType = types.SignalShortImbalance
		entry = bid.Price
	case nearLevel(bid.Price, support, bounceProximityPct):
		sigType = types.SignalLongBounce
		entry = ask.Price
	case nearLevel(ask.Price, resistance, bounceProximityPct):
		sigType = types.SignalShortRejection
		entry = bid.Price
	default:
		return types.TradingSignal{}, false
	}

	confidence := g.confidence(book, sigType, ratio, entry, support, resistance)
	tick := g.cfg.TickSize
	stopTicks := float64(g.cfg.StopTicks) * tick
	targetTicks := float64(g.cfg.TargetTicks) * tick

	sig := types.TradingSignal{
		Symbol:      ins.Symbol,
		Sector:      ins.Sector,
		Type:        sigType,
		EntryPrice:  entry,
		Confidence:  confidence,
		GeneratedAt: now,
	}
	if sigType.IsLong() {
		sig.StopLoss = entry - stopTicks
		sig.TargetPrice = entry + targetTicks
	} else {
		sig.StopLoss = entry + stopTicks
		sig.TargetPrice = entry - targetTicks
	}
	return sig, true
}

func (g *Generator) thresholds() micro.ConditionThresholds {
	return micro.ConditionThresholds{
		MinBestVolume:  g.cfg.MinVolumeAtLevel,
		MinDepthLevels: g.cfg.DepthLevels,
		MinImbalance:   1.5,
		MinTradeVolume: g.cfg.MinTradeVolume,
	}
}

// confidence 混合深度、失衡、量能与接近度四个分量。
func (g *Generator) confidence(book *market.OrderBook, sigType types.SignalType,
	ratio, entry float64, support, resistance []market.Level) float64 {
	w := g.cfg.Weights

	depth := float64(len(book.Bids) + len(book.Asks))
	if depth > 10 {
		depth = 10
	}
	depthScore := depth / 10

	imbalanceScore := 0.1
	switch sigType {
	case types.SignalLongImbalance:
		imbalanceScore = math.Min(ratio/5, 1)
	case types.SignalShortImbalance:
		if ratio > 0 {
			imbalanceScore = math.Min(1/ratio/5, 1)
		}
	}

	volumeScore := 0.0
	if bid, ok := book.BestBid(); ok {
		if ask, ok := book.BestAsk(); ok {
			total := float64(bid.Quantity + ask.Quantity)
			volumeScore = math.Min(total/float64(g.cfg.MinVolumeAtLevel*2), 1)
		}
	}

	proximity := 0.0
	if nearLevel(entry, support, confidenceProximityPct) || nearLevel(entry, resistance, confidenceProximityPct) {
		proximity = 1
	}

	return strategy.Clamp01(
		w.Depth*depthScore + w.Imbalance*imbalanceScore + w.Volume*volumeScore + w.Proximity*proximity)
}

func nearLevel(price float64, levels []market.Level, proximityPct float64) bool {
	if price <= 0 {
		return false
	}
	for _, lvl := range levels {
		if math.Abs(price-lvl.Price)/price*100 <= proximityPct {
			return true
		}
	}
	return false
}
