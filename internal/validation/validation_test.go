package validation

import (
	"strings"
	"testing"
)

func TestIsCanonicalCurrency(t *testing.T) {
	valid := []string{"USD", "EUR", "GBP"}
	for _, s := range valid {
		if !IsCanonicalCurrency(s) {
			t.Errorf("%q should be canonical", s)
		}
	}

	invalid := []string{"usd", "USDD", "US", "", "U$D"}
	for _, s := range invalid {
		if IsCanonicalCurrency(s) {
			t.Errorf("%q should not be canonical", s)
		}
	}
}

func TestIsCanonicalCountry(t *testing.T) {
	if !IsCanonicalCountry("US") || !IsCanonicalCountry("DE") {
		t.Error("2-letter upper-case codes should be canonical")
	}
	if IsCanonicalCountry("us") || IsCanonicalCountry("USA") || IsCanonicalCountry("") {
		t.Error("Non-canonical codes should be rejected")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 100); got != "hello" {
		t.Errorf("Expected trimmed string, got %q", got)
	}
	if got := SanitizeString("abc\x00def", 100); got != "abcdef" {
		t.Errorf("Expected null bytes removed, got %q", got)
	}
	if got := SanitizeString(strings.Repeat("a", 20), 5); got != "aaaaa" {
		t.Errorf("Expected truncated string, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	errs := Validate(
		Required("user_id", ""),
		Required("merchant", "Store"),
		MaxLength("merchant", strings.Repeat("x", 11), 10),
	)

	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(errs))
	}
	if errs[0].Field != "user_id" {
		t.Errorf("First error should be user_id, got %s", errs[0].Field)
	}
	if errs[1].Field != "merchant" {
		t.Errorf("Second error should be merchant, got %s", errs[1].Field)
	}
}

func TestValidate_AllPass(t *testing.T) {
	errs := Validate(
		Required("user_id", "u1"),
		MaxLength("user_id", "u1", MaxStringLength),
	)
	if len(errs) != 0 {
		t.Errorf("Expected no errors, got %v", errs)
	}
}

func TestRequired_WhitespaceOnly(t *testing.T) {
	if Required("f", "   ")() == nil {
		t.Error("Whitespace-only value should fail Required")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Field: "user_id", Message: "is required"}}
	if errs.Error() != "user_id: is required" {
		t.Errorf("Unexpected message: %s", errs.Error())
	}
	if (ValidationErrors{}).Error() != "validation failed" {
		t.Error("Empty errors should have a generic message")
	}
}
