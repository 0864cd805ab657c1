package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"missing", "", 10, false},
		{"blank", "limit=%20", 10, false},
		{"explicit", "limit=3", 3, false},
		{"padded", "limit=%207%20", 7, false},
		{"zero passes through", "limit=0", 0, false},
		{"negative passes through", "limit=-4", -4, false},
		{"text", "limit=ten", 0, true},
		{"float", "limit=2.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got, err := parseLimit(values, 10)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseLimit(%q) expected error", tt.query)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLimit(%q) unexpected error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Fatalf("parseLimit(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestPositiveIntParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := attachURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "tourId", tt.raw)
			got, err := positiveIntParam(req, "tourId")
			if (err != nil) != tt.wantErr {
				t.Fatalf("positiveIntParam(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("positiveIntParam(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeComment(t *testing.T) {
	if normalizeComment(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	blank := "   "
	if normalizeComment(&blank) != nil {
		t.Fatalf("blank comment should become nil")
	}
	padded := "  lovely views "
	if got := normalizeComment(&padded); got == nil || *got != "lovely views" {
		t.Fatalf("comment not trimmed: %v", got)
	}
}

func TestPatchComment(t *testing.T) {
	if patchComment(nil) != nil {
		t.Fatalf("absent comment should stay nil")
	}
	blank := "   "
	if got := patchComment(&blank); got == nil || *got != "" {
		t.Fatalf("blank comment should become an empty clear marker, got %v", got)
	}
	padded := "  lovely views "
	if got := patchComment(&padded); got == nil || *got != "lovely views" {
		t.Fatalf("comment not trimmed: %v", got)
	}
}

func attachURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
