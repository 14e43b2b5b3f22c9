package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/creditguard/internal/history"
	"github.com/mbd888/creditguard/internal/ingest"
	"github.com/mbd888/creditguard/pkg/scoring"
)

type stubEvaluator struct {
	result  *scoring.Result
	results []scoring.Result
	err     error

	singleCalls int
	batchCalls  int
	duringCall  func()
}

func (s *stubEvaluator) Evaluate(ctx context.Context, tx scoring.Transaction) (*scoring.Result, error) {
	s.singleCalls++
	if s.duringCall != nil {
		s.duringCall()
	}
	return s.result, s.err
}

func (s *stubEvaluator) EvaluateBatch(ctx context.Context, txs []scoring.Transaction) ([]scoring.Result, error) {
	s.batchCalls++
	if s.duringCall != nil {
		s.duringCall()
	}
	return s.results, s.err
}

func newTestController(gw *stubEvaluator) *Controller {
	return New(gw, history.NewLog())
}

func TestSubmitSingle_Success(t *testing.T) {
	gw := &stubEvaluator{result: &scoring.Result{UserID: "u1", RiskLevel: scoring.RiskHigh}}
	c := newTestController(gw)

	result, err := c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, scoring.RiskHigh, result.RiskLevel)

	v := c.View()
	assert.Equal(t, StateSuccess, v.State)
	assert.False(t, v.SingleLoading)
	assert.Empty(t, v.LastError)
	require.NotNil(t, v.CurrentResult)
	assert.Equal(t, "u1", v.CurrentResult.UserID)

	assert.Equal(t, 1, c.History().Len(), "exactly one history entry per successful submission")
}

func TestSubmitSingle_LoadingFlagDuringCall(t *testing.T) {
	gw := &stubEvaluator{result: &scoring.Result{UserID: "u1"}}
	c := newTestController(gw)
	gw.duringCall = func() {
		v := c.View()
		assert.True(t, v.SingleLoading)
		assert.Equal(t, StateSubmitting, v.State)
	}

	_, err := c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "u1"})
	require.NoError(t, err)
}

func TestSubmitSingle_FailureKeepsPreviousResult(t *testing.T) {
	gw := &stubEvaluator{result: &scoring.Result{UserID: "first", RiskLevel: scoring.RiskLow}}
	c := newTestController(gw)

	_, err := c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "first"})
	require.NoError(t, err)

	gw.result = nil
	gw.err = &scoring.ServiceError{Status: 500, Reason: "boom"}
	_, err = c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "second"})
	require.Error(t, err)

	v := c.View()
	assert.Equal(t, StateFailed, v.State)
	assert.False(t, v.SingleLoading, "loading flag must release on failure")
	assert.Contains(t, v.LastError, "boom")
	require.NotNil(t, v.CurrentResult)
	assert.Equal(t, "first", v.CurrentResult.UserID, "failure must not clobber the previous result")

	assert.Equal(t, 1, c.History().Len(), "failed submissions never reach the history")
}

func TestSubmitSingle_SuccessClearsPreviousError(t *testing.T) {
	gw := &stubEvaluator{err: errors.New("transient")}
	c := newTestController(gw)

	_, _ = c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "u1"})
	require.NotEmpty(t, c.View().LastError)

	gw.err = nil
	gw.result = &scoring.Result{UserID: "u1", RiskLevel: scoring.RiskLow}
	_, err := c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "u1"})
	require.NoError(t, err)

	assert.Empty(t, c.View().LastError)
	assert.Equal(t, StateSuccess, c.View().State)
}

func TestSubmitBatch_AppendsInOrder(t *testing.T) {
	gw := &stubEvaluator{results: []scoring.Result{
		{UserID: "a", RiskLevel: scoring.RiskLow},
		{UserID: "b", RiskLevel: scoring.RiskMedium},
		{UserID: "c", RiskLevel: scoring.RiskHigh},
	}}
	c := newTestController(gw)

	results, err := c.SubmitBatch(context.Background(), []scoring.Transaction{
		{UserID: "a"}, {UserID: "b"}, {UserID: "c"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	snap := c.History().Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].UserID)
	assert.Equal(t, "c", snap[2].UserID)
}

func TestSubmitBatch_FailureLeavesHistoryUntouched(t *testing.T) {
	gw := &stubEvaluator{result: &scoring.Result{UserID: "kept", RiskLevel: scoring.RiskLow}}
	c := newTestController(gw)
	_, err := c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "kept"})
	require.NoError(t, err)

	gw.err = &scoring.NetworkError{Err: errors.New("refused")}
	_, err = c.SubmitBatch(context.Background(), []scoring.Transaction{{UserID: "a"}})
	require.Error(t, err)

	assert.Equal(t, 1, c.History().Len())
	assert.False(t, c.View().BatchLoading)
}

func TestSubmitBatch_DoesNotTouchSingleState(t *testing.T) {
	gw := &stubEvaluator{results: []scoring.Result{{UserID: "a"}}}
	c := newTestController(gw)
	gw.duringCall = func() {
		v := c.View()
		assert.True(t, v.BatchLoading)
		assert.False(t, v.SingleLoading)
		assert.Equal(t, StateIdle, v.State, "batch flow must not drive the single-submission state")
	}

	_, err := c.SubmitBatch(context.Background(), []scoring.Transaction{{UserID: "a"}})
	require.NoError(t, err)
}

func TestIngestDocument_Success(t *testing.T) {
	gw := &stubEvaluator{results: []scoring.Result{
		{UserID: "a", RiskLevel: scoring.RiskLow},
		{UserID: "b", RiskLevel: scoring.RiskHigh},
	}}
	c := newTestController(gw)

	results, err := c.IngestDocument(context.Background(), []byte(`[{"user_id":"a"},{"user_id":"b"}]`))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, c.History().Len())
	assert.Equal(t, 1, gw.batchCalls)
}

func TestIngestDocument_ParseErrorPropagates(t *testing.T) {
	gw := &stubEvaluator{}
	c := newTestController(gw)

	_, err := c.IngestDocument(context.Background(), []byte("not json"))

	var parseErr *ingest.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0, gw.batchCalls)
	assert.Equal(t, 0, c.History().Len())
	assert.False(t, c.View().BatchLoading)
}

func TestClearHistory(t *testing.T) {
	gw := &stubEvaluator{result: &scoring.Result{UserID: "u1", RiskLevel: scoring.RiskLow}}
	c := newTestController(gw)
	_, err := c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "u1"})
	require.NoError(t, err)

	c.ClearHistory()

	assert.Equal(t, 0, c.History().Len())
	assert.Nil(t, c.View().CurrentResult)
	// The lifecycle state survives a clear; only the data resets
	assert.Equal(t, StateSuccess, c.View().State)
}

func TestView_CopiesCurrentResult(t *testing.T) {
	gw := &stubEvaluator{result: &scoring.Result{UserID: "u1"}}
	c := newTestController(gw)
	_, err := c.SubmitSingle(context.Background(), scoring.Transaction{UserID: "u1"})
	require.NoError(t, err)

	v := c.View()
	v.CurrentResult.UserID = "mutated"

	assert.Equal(t, "u1", c.View().CurrentResult.UserID)
}
