package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, j.Close())
}

func TestRecordClosedAndCount(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.RecordClosed(types.ClosedPosition{
		Symbol:    "ITC",
		Strategy:  "gap_short",
		Reason:    "BRACKET_EXECUTED",
		PnL:       -900.456,
		ExitPrice: 459,
		ClosedAt:  time.Now(),
		HoldSecs:  600,
	}))
	require.NoError(t, j.RecordClosed(types.ClosedPosition{
		Symbol:   "RELIANCE",
		Strategy: "scalping",
		Reason:   "MAX_HOLD_EXCEEDED",
		PnL:      20,
		ClosedAt: time.Now(),
	}))

	count, err := j.ClosedTradeCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var rows []closedTradeModel
	require.NoError(t, j.db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "ITC", rows[0].Symbol)
	// 金额按两位小数落库
	assert.Equal(t, "-900.46", rows[0].PnL)
	assert.Equal(t, "MAX_HOLD_EXCEEDED", rows[1].Reason)
}

func TestRecordSnapshot(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.RecordSnapshot(types.ComprehensivePerformance{
		Timestamp:      time.Now(),
		TotalDailyPnL:  -1234.5,
		PortfolioValue: 998765.5,
		TotalPositions: 3,
		RiskState:      "SAFE",
	}))

	var rows []snapshotModel
	require.NoError(t, j.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "-1234.50", rows[0].TotalDailyPnL)
	assert.Equal(t, 3, rows[0].TotalPositions)
	assert.Equal(t, "SAFE", rows[0].RiskState)
}

func TestNilJournalIsNoop(t *testing.T) {
	var j *Journal
	assert.NoError(t, j.RecordClosed(types.ClosedPosition{}))
	assert.NoError(t, j.RecordSnapshot(types.ComprehensivePerformance{}))
	assert.NoError(t, j.Close())
}
