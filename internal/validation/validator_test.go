package validation

import (
	"strings"
	"testing"
)

type ratingPayload struct {
	Score      int     `json:"score" validate:"min=1,max=5"`
	Comment    *string `json:"comment" validate:"omitempty,max=255"`
	CustomerID int     `json:"customerId" validate:"gt=0"`
}

type patchPayload struct {
	Score *int `json:"score" validate:"omitempty,min=1,max=5"`
}

type batchPayload struct {
	CustomerIDs []int `json:"customerIds" validate:"min=1,dive,gt=0"`
}

func ptr[T any](v T) *T { return &v }

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{"valid rating", &ratingPayload{Score: 5, CustomerID: 1}, "", ""},
		{"score too low", &ratingPayload{Score: 0, CustomerID: 1}, "score", "score must be at least 1"},
		{"score too high", &ratingPayload{Score: 6, CustomerID: 1}, "score", "score must be at most 5"},
		{"comment too long", &ratingPayload{Score: 3, CustomerID: 1, Comment: ptr(strings.Repeat("x", 256))}, "comment", "comment must be at most 255 characters"},
		{"customer not positive", &ratingPayload{Score: 3, CustomerID: 0}, "customerId", "customerId must be greater than 0"},
		{"patch without score", &patchPayload{}, "", ""},
		{"patch with bad score", &patchPayload{Score: ptr(9)}, "score", "score must be at most 5"},
		{"empty batch", &batchPayload{CustomerIDs: []int{}}, "customerIds", "customerIds must be at least 1 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() expected error on %s", tt.wantField)
			}
			if got := err.Fields[0].Field; got != tt.wantField {
				t.Fatalf("field = %q, want %q", got, tt.wantField)
			}
			if got := err.Fields[0].Message; got != tt.wantMsg {
				t.Fatalf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	err := ValidateStruct(&ratingPayload{Score: 0, CustomerID: 0})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != Code {
		t.Fatalf("code = %s, want %s", apiErr.Code, Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field entries, got %#v", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "score") || !strings.Contains(apiErr.Message, "customerId") {
		t.Fatalf("message should mention both fields: %s", apiErr.Message)
	}

	single := ValidateStruct(&ratingPayload{Score: 9, CustomerID: 1}).ToAPIError()
	if single.Details["field"] != "score" {
		t.Fatalf("single error details = %#v", single.Details)
	}
}

func TestValidateVar(t *testing.T) {
	if err := ValidateVar("limit", 10, "min=1,max=100"); err != nil {
		t.Fatalf("ValidateVar() unexpected error: %v", err)
	}
	err := ValidateVar("limit", 500, "min=1,max=100")
	if err == nil {
		t.Fatalf("expected error for limit above max")
	}
	if err.Fields[0].Message != "limit must be at most 100" {
		t.Fatalf("message = %q", err.Fields[0].Message)
	}
}
