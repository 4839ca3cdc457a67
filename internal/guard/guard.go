// Package guard gates the console's routes on the operator's session.
package guard

import (
	"net/url"
	"strings"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
)

const (
	// LoginPath is the login entry point.
	LoginPath = "/login"
	// HomePath is where an authenticated admin lands.
	HomePath = "/admin/dashboard"
	// ProtectedPrefix covers every route that needs an admin session.
	ProtectedPrefix = "/admin"
)

// Decision is the outcome of a route-entry check.
type Decision struct {
	Allow    bool
	Redirect string
}

// Decide checks target (a request URI) against st. Protected paths need an
// authenticated admin; the login page sends an authenticated admin home.
// It makes no network calls.
func Decide(st session.State, target string) Decision {
	p := target
	if u, err := url.Parse(target); err == nil {
		p = u.Path
	}

	switch {
	case IsProtected(p):
		if st.Admin() {
			return Decision{Allow: true}
		}
		return Decision{Redirect: LoginPath + "?from=" + url.QueryEscape(target)}
	case p == LoginPath:
		if st.Admin() {
			return Decision{Redirect: HomePath}
		}
	}
	return Decision{Allow: true}
}

// IsProtected reports whether path p needs an admin session.
func IsProtected(p string) bool {
	return p == ProtectedPrefix || strings.HasPrefix(p, ProtectedPrefix+"/")
}

// SafeFrom returns from when it is a protected console path, else HomePath.
// It keeps the post-login redirect on this host.
func SafeFrom(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return HomePath
	}
	u, err := url.Parse(from)
	if err != nil || u.Host != "" || u.Scheme != "" || !IsProtected(u.Path) {
		return HomePath
	}
	return u.RequestURI()
}
