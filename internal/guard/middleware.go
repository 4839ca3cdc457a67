package guard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httputil"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/middleware"
)

// CookieName is the console's session cookie.
const CookieName = "admin_session"

// Sessions hands out session handles by ID.
type Sessions interface {
	Session(id string) *session.Session
}

type ctxKey struct{}

// Operator is the signed-in admin behind a guarded request.
type Operator struct {
	Session *session.Session
	State   session.State
}

// FromContext returns the operator stored by RequireAdmin.
func FromContext(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(ctxKey{}).(Operator)
	return op, ok
}

// SessionID returns the session ID carried by r's cookie, or "" when there
// is none or it is not a session ID the console issued.
func SessionID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil || !session.ValidID(c.Value) {
		return ""
	}
	return c.Value
}

// load reads the caller's session. A cookie that cannot name a session is
// expired and the caller treated as anonymous.
func load(w http.ResponseWriter, r *http.Request, sessions Sessions) (*session.Session, session.State, error) {
	id := SessionID(r)
	if id == "" {
		if _, err := r.Cookie(CookieName); err == nil {
			ClearCookie(w, r.TLS != nil)
		}
		return nil, session.State{}, nil
	}
	sess := sessions.Session(id)
	st, err := sess.Get(r.Context())
	return sess, st, err
}

// RequireAdmin lets through only requests from an authenticated admin and
// redirects everyone else to the login page.
func RequireAdmin(sessions Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, st, err := load(w, r, sessions)
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}

			d := Decide(st, r.URL.RequestURI())
			if d.Allow && !st.Admin() {
				// Mounted outside the protected prefix.
				d = Decision{Redirect: LoginPath}
			}
			if !d.Allow {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}

			ctx := middleware.WithOperator(r.Context(), st.Identity.ID, sess.ID())
			ctx = context.WithValue(ctx, ctxKey{}, Operator{Session: sess, State: st})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectAuthenticated sends an authenticated admin away from the login
// page.
func RedirectAuthenticated(sessions Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, st, err := load(w, r, sessions)
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}
			if d := Decide(st, r.URL.Path); !d.Allow {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetCookie issues the session cookie.
func SetCookie(w http.ResponseWriter, id string, secure bool, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
