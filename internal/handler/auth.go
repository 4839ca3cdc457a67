package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/audit"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/auth"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/guard"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httputil"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/logger"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/middleware"
)

// LoginRequest is the JSON form of POST /login. Form posts use the same
// field names.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from,omitempty"`
}

// LoginHint is served on GET /login to a visitor without a session.
type LoginHint struct {
	Action string   `json:"action"`
	Fields []string `json:"fields"`
	From   string   `json:"from"`
}

// LoginPage handles GET /login.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, LoginHint{
		Action: guard.LoginPath,
		Fields: []string{"email", "password"},
		From:   guard.SafeFrom(r.URL.Query().Get("from")),
	})
}

// Login handles POST /login. A successful login always starts a fresh
// session; a session the browser still carried is cleared.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := readLogin(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id := session.NewID()
	sess := h.sessions.Session(id)
	identity, err := auth.Login(ctx, h.clients.Public(id), sess, auth.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.clients.Forget(ctx, id, session.State{})
		h.writeError(w, r, err)
		return
	}

	if prev := guard.SessionID(r); prev != "" && prev != id {
		if err := h.sessions.Session(prev).Clear(ctx); err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "failed to clear previous session", slog.String("error", err.Error()))
		}
	}

	guard.SetCookie(w, id, h.secure, h.ttl)
	h.audit.Record(middleware.WithOperator(ctx, identity.ID, id), audit.Entry{
		Resource:  "session",
		SubjectID: identity.ID,
		Action:    audit.ActionLoggedIn,
		Data:      map[string]string{"email": identity.Email},
	})
	http.Redirect(w, r, guard.SafeFrom(req.From), http.StatusSeeOther)
}

// Logout handles POST /logout. It only forgets the local session; the
// backend keeps nothing to revoke.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if id := guard.SessionID(r); id != "" {
		sess := h.sessions.Session(id)
		st, err := sess.Get(ctx)
		if err == nil {
			err = auth.Logout(ctx, sess)
		}
		switch {
		case err != nil:
			logger.FromContext(ctx).WarnContext(ctx, "logout failed", slog.String("error", err.Error()))
		case st.Identity != nil:
			h.audit.Record(middleware.WithOperator(ctx, st.Identity.ID, id), audit.Entry{
				Resource:  "session",
				SubjectID: st.Identity.ID,
				Action:    audit.ActionLoggedOut,
			})
		}
	}

	guard.ClearCookie(w, h.secure)
	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}

func readLogin(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	var req LoginRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		body, err := readBody(w, r)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return req, apperrors.InvalidInput("decode request body: " + err.Error())
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			return req, apperrors.InvalidInput("could not parse login form")
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
		req.From = r.PostForm.Get("from")
	}

	if req.From == "" {
		req.From = r.URL.Query().Get("from")
	}
	return req, nil
}
