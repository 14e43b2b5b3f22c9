// Package session owns the dashboard-visible evaluation state and
// sequences calls to the scoring gateway, the ingestor, and the history.
package session

import (
	"context"
	"sync"

	"github.com/mbd888/creditguard/internal/history"
	"github.com/mbd888/creditguard/internal/ingest"
	"github.com/mbd888/creditguard/pkg/scoring"
)

// State is the single-submission flow's position in its lifecycle.
// Success and Failed both return to Submitting on the next submission;
// the controller is reusable indefinitely.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Evaluator is the slice of the scoring client the controller needs.
type Evaluator interface {
	Evaluate(ctx context.Context, tx scoring.Transaction) (*scoring.Result, error)
	EvaluateBatch(ctx context.Context, txs []scoring.Transaction) ([]scoring.Result, error)
}

// View is a read-only snapshot of controller state for the presentation
// layer.
type View struct {
	State         State           `json:"state"`
	SingleLoading bool            `json:"singleLoading"`
	BatchLoading  bool            `json:"batchLoading"`
	LastError     string          `json:"lastError,omitempty"`
	CurrentResult *scoring.Result `json:"currentResult,omitempty"`
}

// Controller coordinates evaluation flows against the session history.
//
// The single and batch flows are fully independent: they share no flag
// and may be in flight simultaneously. Overlapping single submissions
// are last-resolved-wins — the displayed current result is whichever
// response completed last, not necessarily the one requested last. That
// race is inherited from the source behavior (no request identity, no
// cancellation) and is deliberately not fixed here.
type Controller struct {
	gateway  Evaluator
	ingestor *ingest.Ingestor
	log      *history.Log

	mu            sync.RWMutex
	state         State
	singleLoading bool
	batchLoading  bool
	lastError     string
	currentResult *scoring.Result
}

// New creates a controller over the given gateway and history log.
func New(gateway Evaluator, log *history.Log) *Controller {
	return &Controller{
		gateway:  gateway,
		ingestor: ingest.New(gateway),
		log:      log,
		state:    StateIdle,
	}
}

// History exposes the session history log.
func (c *Controller) History() *history.Log {
	return c.log
}

// SubmitSingle evaluates one transaction.
//
// On success the result becomes the current result, any previous error
// is cleared, and the result is appended to the history. On failure the
// error message is stored and the previous current result is left
// untouched. The loading flag releases either way.
func (c *Controller) SubmitSingle(ctx context.Context, tx scoring.Transaction) (*scoring.Result, error) {
	c.mu.Lock()
	c.state = StateSubmitting
	c.singleLoading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.singleLoading = false
		c.mu.Unlock()
	}()

	result, err := c.gateway.Evaluate(ctx, tx)
	if err != nil {
		c.mu.Lock()
		c.state = StateFailed
		c.lastError = err.Error()
		c.mu.Unlock()
		return nil, err
	}

	c.log.Append(*result)

	c.mu.Lock()
	c.state = StateSuccess
	c.lastError = ""
	c.currentResult = result
	c.mu.Unlock()

	return result, nil
}

// SubmitBatch evaluates an ordered transaction list in one call.
//
// Independent of the single flow: it neither reads nor mutates the
// single-submission state or its loading flag. On success all results
// are appended to the history in returned order; on failure the error
// propagates and the history is untouched.
func (c *Controller) SubmitBatch(ctx context.Context, txs []scoring.Transaction) ([]scoring.Result, error) {
	c.mu.Lock()
	c.batchLoading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.batchLoading = false
		c.mu.Unlock()
	}()

	results, err := c.gateway.EvaluateBatch(ctx, txs)
	if err != nil {
		return nil, err
	}

	c.log.AppendMany(results)
	return results, nil
}

// IngestDocument parses an uploaded dataset and runs it through the
// batch flow. Errors (parse, service, network) propagate unchanged;
// history is only touched on success.
func (c *Controller) IngestDocument(ctx context.Context, raw []byte) ([]scoring.Result, error) {
	c.mu.Lock()
	c.batchLoading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.batchLoading = false
		c.mu.Unlock()
	}()

	results, err := c.ingestor.Ingest(ctx, raw)
	if err != nil {
		return nil, err
	}

	c.log.AppendMany(results)
	return results, nil
}

// ClearHistory empties the session history and resets the current
// result view.
func (c *Controller) ClearHistory() {
	c.log.Clear()

	c.mu.Lock()
	c.currentResult = nil
	c.mu.Unlock()
}

// View returns a read-only snapshot for the presentation layer.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{
		State:         c.state,
		SingleLoading: c.singleLoading,
		BatchLoading:  c.batchLoading,
		LastError:     c.lastError,
	}
	if c.currentResult != nil {
		r := *c.currentResult
		v.CurrentResult = &r
	}
	return v
}
