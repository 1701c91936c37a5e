package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/market"
)

const replayDoc = `{
  "index": {
    "NIFTY50": {"price": 20150, "open": 20200, "previous_close": 20000}
  },
  "quotes": {
    "ITC": {"current": 460, "open": 459, "high": 462, "low": 455, "previous_close": 450, "volume": 5000000}
  },
  "daily": {
    "ITC": [
      {"open_time": 1756100000000, "open": 455, "high": 460, "low": 450, "close": 452, "volume": 3000000},
      {"open_time": 1756186400000, "open": 452, "high": 456, "low": 448, "close": 450, "volume": 3500000}
    ]
  },
  "intraday": {
    "ITC": [
      {"open_time": 1756272800000, "open": 459, "high": 461, "low": 458, "close": 460, "volume": 120000}
    ]
  },
  "books": {
    "ITC": {
      "bids": [{"price": 459.95, "quantity": 1200, "orders": 8}],
      "asks": [{"price": 460.05, "quantity": 400, "orders": 3}],
      "last_traded_qty": 1500,
      "total_buy_qty": 90000,
      "total_sell_qty": 60000
    }
  }
}`

func newTestProvider(t *testing.T) *ReplayProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replay.json")
	require.NoError(t, os.WriteFile(path, []byte(replayDoc), 0o644))
	p, err := NewReplayProvider(path)
	require.NoError(t, err)
	return p
}

func TestNewReplayProviderRejectsInvalidFile(t *testing.T) {
	_, err := NewReplayProvider(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = NewReplayProvider(path)
	assert.Error(t, err)
}

func TestGetQuotesOmitsMissingSymbols(t *testing.T) {
	p := newTestProvider(t)
	quotes, err := p.GetQuotes(context.Background(), []string{"ITC", "NOPE"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	snap := quotes["ITC"]
	assert.InDelta(t, 460.0, snap.CurrentPrice, 1e-9)
	assert.InDelta(t, 450.0, snap.PreviousClose, 1e-9)
	assert.Equal(t, int64(5_000_000), snap.Volume)
	assert.InDelta(t, 2.0, snap.GapPercentage(), 1e-9)
}

func TestGetDailyHistoryTrimsToRequestedDays(t *testing.T) {
	p := newTestProvider(t)
	candles, err := p.GetDailyHistory(context.Background(), "ITC", 1)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.InDelta(t, 450.0, candles[0].Close, 1e-9)

	_, err = p.GetDailyHistory(context.Background(), "NOPE", 5)
	assert.ErrorIs(t, err, market.ErrDataUnavailable)
}

func TestGetIndexSnapshot(t *testing.T) {
	p := newTestProvider(t)
	idx, err := p.GetIndexSnapshot(context.Background(), "NIFTY50")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, idx.GapPercentage(), 1e-9)

	_, err = p.GetIndexSnapshot(context.Background(), "SENSEX")
	assert.ErrorIs(t, err, market.ErrDataUnavailable)
}

func TestGetOrderBook(t *testing.T) {
	p := newTestProvider(t)
	book, err := p.GetOrderBook(context.Background(), "ITC")
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	require.Len(t, book.Asks, 1)
	assert.InDelta(t, 459.95, book.Bids[0].Price, 1e-9)
	assert.Equal(t, int64(1200), book.Bids[0].Quantity)
	assert.Equal(t, 8, book.Bids[0].Orders)
	assert.Equal(t, int64(1500), book.LastTradedQty)

	_, err = p.GetOrderBook(context.Background(), "NOPE")
	assert.ErrorIs(t, err, market.ErrDataUnavailable)
}

func TestContextCancellationPropagates(t *testing.T) {
	p := newTestProvider(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GetQuotes(ctx, []string{"ITC"})
	assert.ErrorIs(t, err, context.Canceled)
}
