package scoring

import (
	"math"
	"strconv"
	"strings"
)

// FormState normalizes raw form edits into a Transaction candidate.
//
// Currency and country are upper-cased on every edit; the dashboard
// hints at 3- and 2-letter codes but longer input is not rejected here.
// UserID and merchant pass through exactly as entered. No I/O.
type FormState struct {
	userID     string
	amountText string
	currency   string
	country    string
	merchant   string
}

// SetUserID records the user ID as entered, without trimming.
func (f *FormState) SetUserID(v string) {
	f.userID = v
}

// SetAmount records the raw amount text. Parsing happens on Transaction().
func (f *FormState) SetAmount(v string) {
	f.amountText = v
}

// SetCurrency upper-cases the currency code immediately.
func (f *FormState) SetCurrency(v string) {
	f.currency = strings.ToUpper(v)
}

// SetCountry upper-cases the country code immediately.
func (f *FormState) SetCountry(v string) {
	f.country = strings.ToUpper(v)
}

// SetMerchant records the merchant name as entered.
func (f *FormState) SetMerchant(v string) {
	f.merchant = v
}

// Transaction produces the canonical transaction candidate from the
// current form state.
func (f *FormState) Transaction() Transaction {
	return Transaction{
		UserID:   f.userID,
		Amount:   ParseAmount(f.amountText),
		Currency: f.currency,
		Country:  f.country,
		Merchant: f.merchant,
	}
}

// ParseAmount converts decimal text to a number. Invalid text yields
// NaN, which is forwarded to the service rather than rejected at input
// time (the service owns amount validation).
func ParseAmount(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
