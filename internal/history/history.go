// Package history maintains the append-only session log of scoring
// results and computes risk-bucket summaries.
//
// The log lives only in process memory: it is emptied by Clear and lost
// when the server stops. Appends from concurrent flows land in
// completion order.
package history

import (
	"sync"

	"github.com/mbd888/creditguard/pkg/scoring"
)

// DefaultRecentLimit is how many entries the dashboard shows.
const DefaultRecentLimit = 10

// Summary counts results per risk bucket.
//
// Entries with a risk level outside LOW/MEDIUM/HIGH count toward Total
// but none of the buckets, so High+Medium+Low <= Total.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Log is the in-memory session history of scoring results.
type Log struct {
	mu      sync.RWMutex
	results []scoring.Result
}

// NewLog creates an empty session history.
func NewLog() *Log {
	return &Log{}
}

// Append adds one result to the end of the history.
func (l *Log) Append(r scoring.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

// AppendMany adds each result in list order to the end of the history.
func (l *Log) AppendMany(rs []scoring.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, rs...)
}

// Clear empties the history.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = nil
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// Snapshot returns a copy of the full history in insertion order.
func (l *Log) Snapshot() []scoring.Result {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]scoring.Result, len(l.results))
	copy(out, l.results)
	return out
}

// Recent returns the last n entries, most recent first. It is a
// display-only projection: the underlying history is never mutated or
// truncated.
func (l *Log) Recent(n int) []scoring.Result {
	if n <= 0 {
		n = DefaultRecentLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	start := len(l.results) - n
	if start < 0 {
		start = 0
	}

	out := make([]scoring.Result, 0, len(l.results)-start)
	for i := len(l.results) - 1; i >= start; i-- {
		out = append(out, l.results[i])
	}
	return out
}

// Summarize computes risk-bucket counts over any result set (typically
// the batch just evaluated, or the whole session).
func Summarize(rs []scoring.Result) Summary {
	s := Summary{Total: len(rs)}
	for _, r := range rs {
		switch r.RiskLevel {
		case scoring.RiskHigh:
			s.High++
		case scoring.RiskMedium:
			s.Medium++
		case scoring.RiskLow:
			s.Low++
		}
	}
	return s
}
