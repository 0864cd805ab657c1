// Package auth authenticates requests with HTTP Basic credentials checked
// against a fixed set of in-memory users.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Clark-Hu/tour-ratings/internal/config"
)

// Roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Realm is advertised in WWW-Authenticate on 401 responses.
const Realm = "tour-ratings"

// ErrInvalidCredentials is returned for a missing user or a wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Subject is the authenticated caller.
type Subject struct {
	Name  string
	Roles []string
}

// HasRole reports whether the subject carries role.
func (s *Subject) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is a configured account before hashing.
type User struct {
	Name     string
	Password string
	Roles    []string
}

type account struct {
	name  []byte
	hash  []byte
	roles []string
}

// Authenticator verifies Basic credentials. Passwords are hashed once at
// construction.
type Authenticator struct {
	accounts map[string]account
	// dummy keeps the cost of an unknown user equal to a wrong password.
	dummy []byte
}

// NewAuthenticator hashes every user's password with bcrypt.
func NewAuthenticator(users []User) (*Authenticator, error) {
	return newAuthenticator(users, bcrypt.DefaultCost)
}

func newAuthenticator(users []User, cost int) (*Authenticator, error) {
	a := &Authenticator{accounts: make(map[string]account, len(users))}
	for _, u := range users {
		if u.Name == "" {
			return nil, fmt.Errorf("username is required")
		}
		if u.Password == "" {
			return nil, fmt.Errorf("password for %s is required", u.Name)
		}
		if _, dup := a.accounts[u.Name]; dup {
			return nil, fmt.Errorf("duplicate user %s", u.Name)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Name, err)
		}
		a.accounts[u.Name] = account{
			name:  []byte(u.Name),
			hash:  hash,
			roles: append([]string(nil), u.Roles...),
		}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("unused-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder: %w", err)
	}
	a.dummy = dummy
	return a, nil
}

// UsersFromConfig returns the configured user (USER) and admin (ADMIN, USER).
func UsersFromConfig(cfg config.Config) []User {
	return []User{
		{Name: cfg.UserName, Password: cfg.UserPassword, Roles: []string{RoleUser}},
		{Name: cfg.AdminName, Password: cfg.AdminPassword, Roles: []string{RoleAdmin, RoleUser}},
	}
}

// Authenticate checks a username and password.
func (a *Authenticator) Authenticate(username, password string) (*Subject, error) {
	acc, ok := a.accounts[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(a.dummy, []byte(password))
		return nil, ErrInvalidCredentials
	}
	nameMatch := subtle.ConstantTimeCompare([]byte(username), acc.name) == 1
	passMatch := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) == nil
	if !nameMatch || !passMatch {
		return nil, ErrInvalidCredentials
	}
	return &Subject{Name: username, Roles: append([]string(nil), acc.roles...)}, nil
}

// AuthenticateRequest reads Basic credentials from r.
func (a *Authenticator) AuthenticateRequest(r *http.Request) (*Subject, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return a.Authenticate(username, password)
}

type contextKey struct{}

// ContextWithSubject stores subject in ctx.
func ContextWithSubject(ctx context.Context, subject *Subject) context.Context {
	return context.WithValue(ctx, contextKey{}, subject)
}

// SubjectFromContext returns the authenticated subject, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	subject, _ := ctx.Value(contextKey{}).(*Subject)
	return subject
}
