package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Clark-Hu/tour-ratings/internal/config"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	users := UsersFromConfig(config.Config{
		UserName: "user", UserPassword: "password",
		AdminName: "admin", AdminPassword: "admin123",
	})
	a, err := newAuthenticator(users, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("newAuthenticator() error = %v", err)
	}
	return a
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t)

	tests := []struct {
		name      string
		user      string
		pass      string
		wantErr   bool
		wantAdmin bool
	}{
		{"user ok", "user", "password", false, false},
		{"admin ok", "admin", "admin123", false, true},
		{"wrong password", "user", "nope", true, false},
		{"unknown user", "ghost", "password", true, false},
		{"empty", "", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := a.Authenticate(tt.user, tt.pass)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Fatalf("Authenticate() error = %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() unexpected error: %v", err)
			}
			if !subject.HasRole(RoleUser) {
				t.Fatalf("every account should carry %s", RoleUser)
			}
			if subject.HasRole(RoleAdmin) != tt.wantAdmin {
				t.Fatalf("HasRole(ADMIN) = %v, want %v", subject.HasRole(RoleAdmin), tt.wantAdmin)
			}
		})
	}
}

func TestNewAuthenticatorRejectsBadUsers(t *testing.T) {
	cases := [][]User{
		{{Name: "", Password: "password"}},
		{{Name: "a", Password: ""}},
		{{Name: "a", Password: "password"}, {Name: "a", Password: "password2"}},
	}
	for i, users := range cases {
		if _, err := newAuthenticator(users, bcrypt.MinCost); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestMiddleware(t *testing.T) {
	a := newTestAuthenticator(t)
	var seen *Subject
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	onFail := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	handler := Middleware(a, onFail)(next)

	req := httptest.NewRequest(http.MethodGet, "/tours/1/ratings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("missing WWW-Authenticate header")
	}

	req = httptest.NewRequest(http.MethodGet, "/tours/1/ratings", nil)
	req.SetBasicAuth("admin", "admin123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if seen == nil || seen.Name != "admin" {
		t.Fatalf("subject not stored in context: %+v", seen)
	}
}

func TestSubjectFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if SubjectFromContext(req.Context()) != nil {
		t.Fatalf("expected nil subject")
	}
}
