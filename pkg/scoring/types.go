// Package scoring implements the wire types and HTTP client for the
// external fraud-scoring service.
// This is the only layer that talks to the network.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"
)

// Risk levels returned by the scoring service.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Transaction is a payment event submitted for scoring.
//
// Amount may be NaN when the operator typed a non-numeric value; the
// client forwards it as JSON null and lets the service reject it.
// Timestamp is passthrough only — the client never sets it.
type Transaction struct {
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Country   string  `json:"country"`
	Merchant  string  `json:"merchant"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// MarshalJSON emits a NaN amount as null (encoding/json refuses NaN).
func (t Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	if math.IsNaN(t.Amount) {
		return json.Marshal(struct {
			alias
			Amount interface{} `json:"amount"`
		}{alias: alias(t)})
	}
	return json.Marshal(alias(t))
}

// RuleTrigger is one named reason contributing to a result's score.
// Order within a result is the service's order and must be preserved.
type RuleTrigger struct {
	RuleName          string  `json:"rule_name"`
	Reason            string  `json:"reason"`
	ScoreContribution float64 `json:"score_contribution"`
}

// Result is the scoring service's verdict for one transaction.
type Result struct {
	UserID         string        `json:"user_id"`
	RiskLevel      string        `json:"risk_level"`
	TotalScore     float64       `json:"total_score"`
	TriggeredRules []RuleTrigger `json:"triggered_rules"`
	Timestamp      string        `json:"timestamp"`
}

// ServiceError is returned when the service responds with a non-2xx status.
type ServiceError struct {
	Status int
	Reason string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("scoring service error: %d %s", e.Status, e.Reason)
}

// NetworkError is returned when no response was obtained at all
// (DNS failure, connection refused, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("scoring service unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
