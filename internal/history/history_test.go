package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/creditguard/pkg/scoring"
)

func result(id, level string) scoring.Result {
	return scoring.Result{UserID: id, RiskLevel: level}
}

func TestLog_AppendAndSnapshot(t *testing.T) {
	log := NewLog()
	log.Append(result("a", scoring.RiskLow))
	log.Append(result("b", scoring.RiskHigh))

	snap := log.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].UserID)
	assert.Equal(t, "b", snap[1].UserID)
	assert.Equal(t, 2, log.Len())
}

func TestLog_AppendManyKeepsOrder(t *testing.T) {
	log := NewLog()
	log.Append(result("first", scoring.RiskLow))
	log.AppendMany([]scoring.Result{
		result("batch1", scoring.RiskLow),
		result("batch2", scoring.RiskMedium),
		result("batch3", scoring.RiskHigh),
	})

	snap := log.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, "first", snap[0].UserID)
	assert.Equal(t, "batch1", snap[1].UserID)
	assert.Equal(t, "batch3", snap[3].UserID)
}

func TestLog_Clear(t *testing.T) {
	log := NewLog()
	log.Append(result("a", scoring.RiskLow))
	log.Clear()

	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.Snapshot())
}

func TestLog_RecentReversesAndLimits(t *testing.T) {
	log := NewLog()
	for i := 0; i < 15; i++ {
		log.Append(result(fmt.Sprintf("u%02d", i), scoring.RiskLow))
	}

	recent := log.Recent(DefaultRecentLimit)
	require.Len(t, recent, 10)
	assert.Equal(t, "u14", recent[0].UserID, "most recent first")
	assert.Equal(t, "u05", recent[9].UserID)

	// Projection only: the full history is untouched
	assert.Equal(t, 15, log.Len())
}

func TestLog_RecentDefaultsLimit(t *testing.T) {
	log := NewLog()
	for i := 0; i < 12; i++ {
		log.Append(result(fmt.Sprintf("u%d", i), scoring.RiskLow))
	}
	assert.Len(t, log.Recent(0), DefaultRecentLimit)
}

func TestLog_RecentFewerThanLimit(t *testing.T) {
	log := NewLog()
	log.Append(result("a", scoring.RiskLow))
	log.Append(result("b", scoring.RiskLow))

	recent := log.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].UserID)
}

func TestLog_SnapshotIsACopy(t *testing.T) {
	log := NewLog()
	log.Append(result("a", scoring.RiskLow))

	snap := log.Snapshot()
	snap[0].UserID = "mutated"

	assert.Equal(t, "a", log.Snapshot()[0].UserID)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]scoring.Result{
		result("a", scoring.RiskHigh),
		result("b", scoring.RiskHigh),
		result("c", scoring.RiskMedium),
		result("d", scoring.RiskLow),
	})

	assert.Equal(t, Summary{Total: 4, High: 2, Medium: 1, Low: 1}, s)
}

func TestSummarize_UnknownLevelCountsOnlyTotal(t *testing.T) {
	s := Summarize([]scoring.Result{
		result("a", scoring.RiskHigh),
		result("b", "CRITICAL"),
		result("c", ""),
	})

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.High)
	assert.Equal(t, 1, s.High+s.Medium+s.Low, "unknown levels land in no bucket")
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
