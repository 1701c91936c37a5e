package market

import (
	"context"
	"errors"
)

// ErrDataUnavailable 表示数据源暂时没有该标的的数据。调用方应跳过该标的，
// 不应因此中断整轮信号生成。
var ErrDataUnavailable = errors.New("market data unavailable")

// DataProvider 是行情数据源的能力接口。实现必须可并发调用。
type DataProvider interface {
	// GetQuotes 批量获取行情快照。缺失的标的从结果中省略而不是报错。
	GetQuotes(ctx context.Context, symbols []string) (map[string]Snapshot, error)
	// GetDailyHistory 返回最近 days 个交易日的日线，按时间升序。
	GetDailyHistory(ctx context.Context, symbol string, days int) ([]Candle, error)
	// GetIntradayHistory 返回当日分钟线，按时间升序。
	GetIntradayHistory(ctx context.Context, symbol string) ([]Candle, error)
	// GetIndexSnapshot 获取指数快照。
	GetIndexSnapshot(ctx context.Context, symbol string) (IndexSnapshot, error)
	// GetOrderBook 获取 L2 订单簿快照。
	GetOrderBook(ctx context.Context, symbol string) (*OrderBook, error)
}
