package auth

import (
	"fmt"
	"net/http"

	"github.com/Clark-Hu/tour-ratings/internal/logging"
)

// Middleware rejects requests without valid Basic credentials. onFail writes
// the 401 body; the WWW-Authenticate header is already set when it runs.
func Middleware(a *Authenticator, onFail func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, Realm)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := a.AuthenticateRequest(r)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("authentication failed")
				w.Header().Set("WWW-Authenticate", challenge)
				onFail(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		})
	}
}
