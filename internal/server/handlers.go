package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mbd888/creditguard/internal/history"
	"github.com/mbd888/creditguard/internal/ingest"
	"github.com/mbd888/creditguard/internal/logging"
	"github.com/mbd888/creditguard/internal/metrics"
	"github.com/mbd888/creditguard/internal/validation"
	"github.com/mbd888/creditguard/pkg/scoring"
)

// formPayload is the raw-text shape the dashboard form posts. Amount
// stays a string so the normalizer, not the JSON decoder, handles
// non-numeric input.
type formPayload struct {
	UserID   string `json:"user_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Country  string `json:"country"`
	Merchant string `json:"merchant"`
}

func (p formPayload) transaction() scoring.Transaction {
	var f scoring.FormState
	f.SetUserID(p.UserID)
	f.SetAmount(p.Amount)
	f.SetCurrency(p.Currency)
	f.SetCountry(p.Country)
	f.SetMerchant(p.Merchant)
	return f.Transaction()
}

// decodeTransaction accepts either a well-typed transaction object or
// the form's all-text shape and normalizes the latter.
func decodeTransaction(raw []byte) (scoring.Transaction, error) {
	var tx scoring.Transaction
	if err := json.Unmarshal(raw, &tx); err == nil {
		return tx, nil
	}

	var form formPayload
	if err := json.Unmarshal(raw, &form); err != nil {
		return scoring.Transaction{}, err
	}
	return form.transaction(), nil
}

// evaluateHandler submits a single transaction for scoring.
func (s *Server) evaluateHandler(c *gin.Context) {
	ctx := c.Request.Context()

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_body",
			"message": "Failed to read request body",
		})
		return
	}

	tx, err := decodeTransaction(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_body",
			"message": "Request body must be a transaction object",
		})
		return
	}

	if verrs := validation.Validate(
		validation.Required("user_id", tx.UserID),
		validation.MaxLength("user_id", tx.UserID, validation.MaxStringLength),
		validation.MaxLength("merchant", tx.Merchant, validation.MaxStringLength),
	); len(verrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": verrs.Error(),
			"fields":  verrs,
		})
		return
	}

	// Advisory only: odd-shaped codes are logged but still forwarded,
	// the scoring service owns rejection.
	if tx.Currency != "" && !validation.IsCanonicalCurrency(tx.Currency) {
		logging.L(ctx).Warn("non-canonical currency code", "currency", tx.Currency)
	}
	if tx.Country != "" && !validation.IsCanonicalCountry(tx.Country) {
		logging.L(ctx).Warn("non-canonical country code", "country", tx.Country)
	}

	timer := prometheus.NewTimer(metrics.ScoringRequestDuration.WithLabelValues("evaluate"))
	result, err := s.controller.SubmitSingle(ctx, tx)
	timer.ObserveDuration()
	if err != nil {
		s.renderEvaluationError(c, err)
		return
	}

	metrics.EvaluationsTotal.WithLabelValues(result.RiskLevel).Inc()
	metrics.HistorySize.Set(float64(s.log.Len()))
	s.realtimeHub.BroadcastResult(*result)

	c.JSON(http.StatusOK, result)
}

// batchEvaluateHandler submits an ordered transaction list in one call.
func (s *Server) batchEvaluateHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var txs []scoring.Transaction
	if err := c.ShouldBindJSON(&txs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_body",
			"message": "Request body must be an array of transaction objects",
		})
		return
	}

	timer := prometheus.NewTimer(metrics.ScoringRequestDuration.WithLabelValues("batch_evaluate"))
	results, err := s.controller.SubmitBatch(ctx, txs)
	timer.ObserveDuration()
	if err != nil {
		s.renderEvaluationError(c, err)
		return
	}

	s.observeBatch(results)

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"summary": history.Summarize(results),
	})
}

// datasetUploadHandler evaluates an uploaded JSON dataset file.
// The file is read fully into memory as text before parsing — a single
// object or an array of objects, same as the form-free import path.
func (s *Server) datasetUploadHandler(c *gin.Context) {
	ctx := c.Request.Context()

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_file",
			"message": "Upload a JSON file under the \"file\" form field",
		})
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_file",
			"message": "Failed to read uploaded file",
		})
		return
	}

	timer := prometheus.NewTimer(metrics.ScoringRequestDuration.WithLabelValues("dataset"))
	results, err := s.controller.IngestDocument(ctx, raw)
	timer.ObserveDuration()
	if err != nil {
		s.renderEvaluationError(c, err)
		return
	}

	s.observeBatch(results)

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"summary": history.Summarize(results),
	})
}

// historyHandler returns the full session history in insertion order.
func (s *Server) historyHandler(c *gin.Context) {
	results := s.log.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// recentHistoryHandler returns the last n entries, most recent first.
func (s *Server) recentHistoryHandler(c *gin.Context) {
	n := s.cfg.HistoryRecentLimit
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "n must be a positive integer",
			})
			return
		}
		n = parsed
	}

	results := s.log.Recent(n)
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// historySummaryHandler returns risk-bucket counts over the whole session.
func (s *Server) historySummaryHandler(c *gin.Context) {
	c.JSON(http.StatusOK, history.Summarize(s.log.Snapshot()))
}

// clearHistoryHandler empties the session history and the current result.
func (s *Server) clearHistoryHandler(c *gin.Context) {
	s.controller.ClearHistory()
	metrics.HistorySize.Set(0)
	s.realtimeHub.BroadcastHistoryCleared()

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// stateHandler exposes the controller's read-only view.
func (s *Server) stateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.View())
}

// observeBatch records metrics and pushes realtime events for a batch.
func (s *Server) observeBatch(results []scoring.Result) {
	for _, r := range results {
		metrics.EvaluationsTotal.WithLabelValues(r.RiskLevel).Inc()
	}
	metrics.BatchSize.Observe(float64(len(results)))
	metrics.HistorySize.Set(float64(s.log.Len()))
	s.realtimeHub.BroadcastBatch(history.Summarize(results))
}

// renderEvaluationError maps the error taxonomy onto HTTP responses:
// ParseError means the operator's upload was bad (400); ServiceError and
// NetworkError mean the upstream call failed (502). Each response
// carries a single human-readable message; history is never touched on
// these paths.
func (s *Server) renderEvaluationError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var parseErr *ingest.ParseError
	var svcErr *scoring.ServiceError
	var netErr *scoring.NetworkError

	switch {
	case errors.As(err, &parseErr):
		metrics.EvaluationErrorsTotal.WithLabelValues("parse").Inc()
		logging.L(ctx).Warn("dataset rejected", "error", parseErr.Message)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "parse_error",
			"message": parseErr.Message,
		})

	case errors.As(err, &svcErr):
		metrics.EvaluationErrorsTotal.WithLabelValues("service").Inc()
		logging.L(ctx).Error("scoring service rejected request",
			"upstream_status", svcErr.Status,
			"reason", svcErr.Reason,
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           "service_error",
			"message":         svcErr.Error(),
			"upstream_status": svcErr.Status,
		})

	case errors.As(err, &netErr):
		metrics.EvaluationErrorsTotal.WithLabelValues("network").Inc()
		logging.L(ctx).Error("scoring service unreachable", "error", netErr.Err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "network_error",
			"message": netErr.Error(),
		})

	default:
		metrics.EvaluationErrorsTotal.WithLabelValues("internal").Inc()
		logging.L(ctx).Error("evaluation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Evaluation failed",
		})
	}
}
