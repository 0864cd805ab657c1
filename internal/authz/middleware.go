package authz

import (
	"net/http"

	"github.com/Clark-Hu/tour-ratings/internal/auth"
	"github.com/Clark-Hu/tour-ratings/internal/logging"
)

// Middleware authorizes the request path against the subject's roles. It must
// run after auth.Middleware. onDeny writes 403 and onError writes 500.
func Middleware(e *Enforcer, onDeny, onError func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.SubjectFromContext(r.Context())
			if subject == nil {
				onDeny(w, r)
				return
			}

			action := methodToAction(r.Method)
			allowed, err := e.EnforceAny(subject.Roles, r.URL.Path, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("authorization error")
				onError(w, r)
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Info().
					Str("subject", subject.Name).
					Str("action", action).
					Str("path", r.URL.Path).
					Msg("access denied")
				onDeny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}
