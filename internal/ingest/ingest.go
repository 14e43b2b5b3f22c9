// Package ingest turns an uploaded JSON dataset into transactions and
// drives their batch evaluation.
package ingest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mbd888/creditguard/pkg/scoring"
)

// ParseError means the uploaded document is not valid JSON, or is valid
// JSON but neither an object nor an array of objects.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Parse decodes a raw dataset document into an ordered transaction list.
//
// A JSON array is taken as the list in its own order; a single JSON
// object becomes a one-element list. No per-entry schema validation
// happens here: malformed entries go to the service and come back as a
// service-side rejection, not a ParseError.
func Parse(raw []byte) ([]scoring.Transaction, error) {
	var list []scoring.Transaction
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single scoring.Transaction
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, &ParseError{Message: "document must be a JSON object or an array of objects: " + err.Error()}
	}
	return []scoring.Transaction{single}, nil
}

// BatchEvaluator is the slice of the scoring client the ingestor needs.
type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, txs []scoring.Transaction) ([]scoring.Result, error)
}

// Ingestor parses uploaded datasets and delegates to the batch endpoint.
type Ingestor struct {
	gateway BatchEvaluator

	mu         sync.RWMutex
	processing bool
}

// New creates an ingestor backed by the given gateway.
func New(gateway BatchEvaluator) *Ingestor {
	return &Ingestor{gateway: gateway}
}

// Processing reports whether an ingest is currently in flight.
func (i *Ingestor) Processing() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.processing
}

// Ingest parses the raw document and evaluates the resulting list in one
// batch call. The processing flag is released on every exit path,
// success or failure — this mirrors the dashboard clearing its file
// selector whatever the outcome.
func (i *Ingestor) Ingest(ctx context.Context, raw []byte) ([]scoring.Result, error) {
	i.setProcessing(true)
	defer i.setProcessing(false)

	txs, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	return i.gateway.EvaluateBatch(ctx, txs)
}

func (i *Ingestor) setProcessing(v bool) {
	i.mu.Lock()
	i.processing = v
	i.mu.Unlock()
}
