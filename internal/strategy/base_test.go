package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"argus/internal/config"
	"argus/internal/types"
)

func TestSortSignalsByConfidenceThenSymbol(t *testing.T) {
	signals := []types.TradingSignal{
		{Symbol: "TCS", Confidence: 0.7},
		{Symbol: "INFY", Confidence: 0.9},
		{Symbol: "ITC", Confidence: 0.7},
	}
	SortSignals(signals)
	assert.Equal(t, "INFY", signals[0].Symbol)
	assert.Equal(t, "ITC", signals[1].Symbol)
	assert.Equal(t, "TCS", signals[2].Symbol)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.3))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.42, Clamp01(0.42))
}

func TestParseUniverseNormalizesSectors(t *testing.T) {
	u := ParseUniverse([]config.UniverseEntry{
		{Symbol: "TCS", Sector: "it"},
		{Symbol: "XYZ", Sector: "space"},
	})
	assert.Equal(t, types.SectorIT, u.SectorOf("TCS"))
	assert.Equal(t, types.SectorUnknown, u.SectorOf("XYZ"))
	assert.Equal(t, types.SectorUnknown, u.SectorOf("NOPE"))
	assert.Equal(t, []string{"TCS", "XYZ"}, u.Symbols())
}

func TestSectorPreferenceDefaultsToNeutral(t *testing.T) {
	pref := SectorPreference{types.SectorIT: 1.0}
	assert.Equal(t, 1.0, pref.Weight(types.SectorIT))
	assert.Equal(t, 0.5, pref.Weight(types.SectorAuto))
}

func TestBaseTrackingAndPerformance(t *testing.T) {
	b := NewBase("gap_short", false, nil)

	b.Track(&types.Position{Symbol: "ITC", EntryPrice: 450, Quantity: -100, EntryTime: time.Now()})
	b.Track(&types.Position{Symbol: "TCS", EntryPrice: 3500, Quantity: -10, EntryTime: time.Now()})
	assert.Equal(t, 2, b.OpenPositionCount())
	assert.True(t, b.Has("ITC"))
	assert.False(t, b.Has("SBIN"))

	b.Untrack(types.ClosedPosition{Symbol: "ITC", PnL: 500, HoldSecs: 300})
	assert.Equal(t, 1, b.OpenPositionCount())

	perf := b.Performance()
	assert.Equal(t, "gap_short", perf.Strategy)
	assert.InDelta(t, 500.0, perf.DailyPnL, 1e-9)
	assert.Equal(t, 2, perf.TradesToday)
	assert.Equal(t, 1, perf.ActivePositions)
	assert.InDelta(t, 300.0, perf.AvgHoldSecs, 1e-9)
}

func TestAgedPositions(t *testing.T) {
	b := NewBase("scalping", true, nil)
	now := time.Now()
	b.SetNowFunc(func() time.Time { return now })

	b.Track(&types.Position{Symbol: "OLD", EntryTime: now.Add(-46 * time.Second), Quantity: 10})
	b.Track(&types.Position{Symbol: "FRESH", EntryTime: now.Add(-10 * time.Second), Quantity: 10})

	aged := b.AgedPositions(45 * time.Second)
	assert.Len(t, aged, 1)
	assert.Equal(t, "OLD", aged[0].Symbol)
}

func TestPositionsReturnsSortedCopies(t *testing.T) {
	b := NewBase("breakout", false, nil)
	b.Track(&types.Position{Symbol: "TCS", Quantity: 10})
	b.Track(&types.Position{Symbol: "INFY", Quantity: 5})

	out := b.Positions()
	assert.Equal(t, "INFY", out[0].Symbol)
	assert.Equal(t, "TCS", out[1].Symbol)

	out[0].Quantity = 999
	assert.Equal(t, int64(5), b.Positions()[0].Quantity)
}
