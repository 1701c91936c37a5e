// Package feed 提供基于录制行情文件的回放数据源。JSON 仅在边界处解码一次，
// 核心各层只接触类型化记录。
package feed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"argus/internal/logger"
	"argus/internal/market"
)

// ReplayProvider 实现 market.DataProvider，从单个 JSON 文件回放行情。
// 文件结构：index / quotes / daily / intraday / books 五个顶层对象，
// 均以 symbol 为键。
type ReplayProvider struct {
	doc   gjson.Result
	nowFn func() time.Time
}

// NewReplayProvider 读取并解析回放文件。
func NewReplayProvider(path string) (*ReplayProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay file %s: %w", path, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("replay file %s is not valid JSON", path)
	}
	doc := gjson.ParseBytes(raw)
	logger.Infof("feed: replay file loaded (%d quotes, %d books)",
		len(doc.Get("quotes").Map()), len(doc.Get("books").Map()))
	return &ReplayProvider{doc: doc, nowFn: time.Now}, nil
}

// SetNowFunc 注入时钟，仅测试使用。
func (p *ReplayProvider) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		p.nowFn = fn
	}
}

// GetQuotes 批量返回行情快照，缺失的标的被省略。
func (p *ReplayProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]market.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.nowFn()
	out := make(map[string]market.Snapshot, len(symbols))
	for _, symbol := range symbols {
		node := p.doc.Get("quotes." + symbol)
		if !node.Exists() {
			continue
		}
		out[symbol] = market.Snapshot{
			Symbol:        symbol,
			CurrentPrice:  node.Get("current").Float(),
			OpenPrice:     node.Get("open").Float(),
			HighPrice:     node.Get("high").Float(),
			LowPrice:      node.Get("low").Float(),
			PreviousClose: node.Get("previous_close").Float(),
			Volume:        node.Get("volume").Int(),
			Timestamp:     now,
		}
	}
	return out, nil
}

// GetDailyHistory 返回最近 days 根日线。
func (p *ReplayProvider) GetDailyHistory(ctx context.Context, symbol string, days int) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candles, err := p.candlesAt("daily."+symbol, symbol)
	if err != nil {
		return nil, err
	}
	if days > 0 && len(candles) > days {
		candles = candles[len(candles)-days:]
	}
	return candles, nil
}

// GetIntradayHistory 返回当日分钟线。
func (p *ReplayProvider) GetIntradayHistory(ctx context.Context, symbol string) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.candlesAt("intraday."+symbol, symbol)
}

// GetIndexSnapshot 返回指数快照。
func (p *ReplayProvider) GetIndexSnapshot(ctx context.Context, symbol string) (market.IndexSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return market.IndexSnapshot{}, err
	}
	node := p.doc.Get("index." + symbol)
	if !node.Exists() {
		return market.IndexSnapshot{}, fmt.Errorf("index %s: %w", symbol, market.ErrDataUnavailable)
	}
	return market.IndexSnapshot{
		Symbol:        symbol,
		Price:         node.Get("price").Float(),
		OpenPrice:     node.Get("open").Float(),
		PreviousClose: node.Get("previous_close").Float(),
	}, nil
}

// GetOrderBook 返回 L2 订单簿快照。
func (p *ReplayProvider) GetOrderBook(ctx context.Context, symbol string) (*market.OrderBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	node := p.doc.Get("books." + symbol)
	if !node.Exists() {
		return nil, fmt.Errorf("order book %s: %w", symbol, market.ErrDataUnavailable)
	}
	book := &market.OrderBook{
		Symbol:        symbol,
		Bids:          parseLevels(node.Get("bids")),
		Asks:          parseLevels(node.Get("asks")),
		LastTradedQty: node.Get("last_traded_qty").Int(),
		TotalBuyQty:   node.Get("total_buy_qty").Int(),
		TotalSellQty:  node.Get("total_sell_qty").Int(),
		Timestamp:     p.nowFn(),
	}
	return book, nil
}

func (p *ReplayProvider) candlesAt(path, symbol string) ([]market.Candle, error) {
	node := p.doc.Get(path)
	if !node.Exists() || !node.IsArray() {
		return nil, fmt.Errorf("candles for %s: %w", symbol, market.ErrDataUnavailable)
	}
	items := node.Array()
	out := make([]market.Candle, 0, len(items))
	for _, item := range items {
		out = append(out, market.Candle{
			OpenTime: item.Get("open_time").Int(),
			Open:     item.Get("open").Float(),
			High:     item.Get("high").Float(),
			Low:      item.Get("low").Float(),
			Close:    item.Get("close").Float(),
			Volume:   item.Get("volume").Float(),
		})
	}
	return out, nil
}

func parseLevels(node gjson.Result) []market.Level {
	if !node.IsArray() {
		return nil
	}
	items := node.Array()
	out := make([]market.Level, 0, len(items))
	for _, item := range items {
		out = append(out, market.Level{
			Price:    item.Get("price").Float(),
			Quantity: item.Get("quantity").Int(),
			Orders:   int(item.Get("orders").Int()),
		})
	}
	return out
}
