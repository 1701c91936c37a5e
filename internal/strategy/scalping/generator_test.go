package scalping

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/config"
	"argus/internal/market"
	"argus/internal/types"
)

type fakeBookProvider struct {
	books map[string]*market.OrderBook
}

func (f *fakeBookProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]market.Snapshot, error) {
	return nil, nil
}

func (f *fakeBookProvider) GetDailyHistory(ctx context.Context, symbol string, days int) ([]market.Candle, error) {
	return nil, market.ErrDataUnavailable
}

func (f *fakeBookProvider) GetIntradayHistory(ctx context.Context, symbol string) ([]market.Candle, error) {
	return nil, market.ErrDataUnavailable
}

func (f *fakeBookProvider) GetIndexSnapshot(ctx context.Context, symbol string) (market.IndexSnapshot, error) {
	return market.IndexSnapshot{}, market.ErrDataUnavailable
}

func (f *fakeBookProvider) GetOrderBook(ctx context.Context, symbol string) (*market.OrderBook, error) {
	book, ok := f.books[symbol]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", symbol, market.ErrDataUnavailable)
	}
	return book, nil
}

func scalpConfig() config.ScalpingConfig {
	return config.ScalpingConfig{
		Enabled:           true,
		MaxPositions:      1,
		PositionSizePct:   5.0,
		MinImbalanceRatio: 2.5,
		DepthLevels:       3,
		MinVolumeAtLevel:  500,
		MinTradeVolume:    1000,
		TickSize:          0.05,
		MinSpreadTicks:    1,
		MaxSpreadTicks:    4,
		StopTicks:         2,
		TargetTicks:       3,
		MaxHoldSeconds:    45,
		CooldownSeconds:   120,
		MinConfidence:     0.80,
		Weights:           config.ScalpingWeights{Depth: 0.25, Imbalance: 0.35, Volume: 0.25, Proximity: 0.15},
		Universe:          []config.UniverseEntry{{Symbol: "RELIANCE", Sector: "METALS"}},
	}
}

// bullishBook 构造买量三倍于卖量、五档两侧、价差 2 tick 的订单簿。
// 价位取 100 附近，2 tick 价差折合 10 bps，落在适用区间内。
func bullishBook() *market.OrderBook {
	book := &market.OrderBook{Symbol: "RELIANCE", LastTradedQty: 2000}
	for i := 0; i < 5; i++ {
		book.Bids = append(book.Bids, market.Level{Price: 100.00 - float64(i)*0.05, Quantity: 1000})
		book.Asks = append(book.Asks, market.Level{Price: 100.10 + float64(i)*0.05, Quantity: 333})
	}
	return book
}

func TestGenerateLongImbalanceSignal(t *testing.T) {
	p := &fakeBookProvider{books: map[string]*market.OrderBook{"RELIANCE": bullishBook()}}
	g := NewGenerator(p, scalpConfig())

	signals, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, "RELIANCE", sig.Symbol)
	assert.Equal(t, types.SignalLongImbalance, sig.Type)
	assert.True(t, sig.Type.IsLong())
	assert.InDelta(t, 100.10, sig.EntryPrice, 1e-9)
	assert.InDelta(t, 100.10-2*0.05, sig.StopLoss, 1e-9)
	assert.InDelta(t, 100.10+3*0.05, sig.TargetPrice, 1e-9)
	assert.GreaterOrEqual(t, sig.Confidence, 0.0)
	assert.LessOrEqual(t, sig.Confidence, 1.0)
}

func TestGenerateShortImbalanceSignal(t *testing.T) {
	book := bullishBook()
	for i := range book.Bids {
		book.Bids[i].Quantity, book.Asks[i].Quantity = book.Asks[i].Quantity, book.Bids[i].Quantity
	}
	p := &fakeBookProvider{books: map[string]*market.OrderBook{"RELIANCE": book}}
	g := NewGenerator(p, scalpConfig())

	signals, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, types.SignalShortImbalance, signals[0].Type)
	assert.InDelta(t, 100.00, signals[0].EntryPrice, 1e-9)
}

func TestGenerateCooldownSuppressesRepeat(t *testing.T) {
	p := &fakeBookProvider{books: map[string]*market.OrderBook{"RELIANCE": bullishBook()}}
	g := NewGenerator(p, scalpConfig())
	base := time.Now()
	g.SetNowFunc(func() time.Time { return base })

	first, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// 冷却期内不再产出
	g.SetNowFunc(func() time.Time { return base.Add(60 * time.Second) })
	second, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)

	// 冷却结束后恢复
	g.SetNowFunc(func() time.Time { return base.Add(121 * time.Second) })
	third, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 1)
}

func TestGenerateSkipsUnsuitableBook(t *testing.T) {
	book := bullishBook()
	book.LastTradedQty = 10 // 不活跃
	p := &fakeBookProvider{books: map[string]*market.OrderBook{"RELIANCE": book}}
	g := NewGenerator(p, scalpConfig())

	signals, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestGenerateSkipsWideSpread(t *testing.T) {
	book := bullishBook()
	for i := range book.Asks {
		book.Asks[i].Price += 0.30 // 价差 8 tick
	}
	p := &fakeBookProvider{books: map[string]*market.OrderBook{"RELIANCE": book}}
	g := NewGenerator(p, scalpConfig())

	signals, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)
}

// randomBook 生成档数、价差与挂单量都随机的订单簿。
func randomBook(r *rand.Rand, symbol string) *market.OrderBook {
	book := &market.OrderBook{Symbol: symbol, LastTradedQty: int64(1 + r.Intn(5000))}
	mid := 80 + r.Float64()*40
	spread := 0.05 * float64(1+r.Intn(4))
	depth := 3 + r.Intn(4)
	for i := 0; i < depth; i++ {
		book.Bids = append(book.Bids, market.Level{
			Price: mid - spread/2 - float64(i)*0.05, Quantity: int64(1 + r.Intn(5000)),
		})
		book.Asks = append(book.Asks, market.Level{
			Price: mid + spread/2 + float64(i)*0.05, Quantity: int64(1 + r.Intn(5000)),
		})
	}
	return book
}

// 随机订单簿与随机权重下，任何产出信号的置信度都必须落在 [0,1]，
// 且输出按置信度降序、同分按代码升序。
func TestGenerateConfidenceBoundedUnderRandomInputs(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		cfg := scalpConfig()
		cfg.CooldownSeconds = 0
		cfg.MinSpreadTicks = 0
		cfg.MaxSpreadTicks = 1000
		cfg.MinVolumeAtLevel = 100
		cfg.MinTradeVolume = 1
		cfg.DepthLevels = 1 + r.Intn(3)
		cfg.Weights = config.ScalpingWeights{
			Depth:     r.Float64() * 2,
			Imbalance: r.Float64() * 2,
			Volume:    r.Float64() * 2,
			Proximity: r.Float64() * 2,
		}
		cfg.Universe = nil

		books := make(map[string]*market.OrderBook)
		for i := 0; i < 4; i++ {
			sym := fmt.Sprintf("SYM%d", i)
			cfg.Universe = append(cfg.Universe, config.UniverseEntry{Symbol: sym, Sector: "IT"})
			books[sym] = randomBook(r, sym)
		}
		g := NewGenerator(&fakeBookProvider{books: books}, cfg)

		signals, err := g.Generate(context.Background())
		require.NoError(t, err)
		for i, sig := range signals {
			assert.GreaterOrEqual(t, sig.Confidence, 0.0, "iter %d %s", iter, sig.Symbol)
			assert.LessOrEqual(t, sig.Confidence, 1.0, "iter %d %s", iter, sig.Symbol)
			if i > 0 {
				prev := signals[i-1]
				assert.True(t, prev.Confidence > sig.Confidence ||
					(prev.Confidence == sig.Confidence && prev.Symbol < sig.Symbol),
					"iter %d: signals out of order at %d", iter, i)
			}
		}
	}
}

func TestGenerateSkipsMissingBook(t *testing.T) {
	p := &fakeBookProvider{books: map[string]*market.OrderBook{}}
	g := NewGenerator(p, scalpConfig())

	signals, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)
}
