package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/logger"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/validator"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		UserInfo     *session.Identity `json:"userInfo"`
		AccessToken  string            `json:"accessToken"`
		RefreshToken string            `json:"refreshToken"`
	} `json:"data"`
}

// Login authenticates against the backend through the public sender and, for
// an admin, establishes sess. Non-admin accounts are refused and nothing is
// stored.
func Login(ctx context.Context, public httpclient.Sender, sess *session.Session, creds Credentials) (session.Identity, error) {
	log := logger.FromContext(ctx)

	if err := validator.Validate(creds); err != nil {
		loginTotal.WithLabelValues("invalid").Inc()
		return session.Identity{}, err
	}

	req, err := httpclient.NewRequest(http.MethodPost, LoginPath).WithJSON(creds)
	if err != nil {
		return session.Identity{}, err
	}

	resp, err := public.Send(ctx, req)
	if err != nil {
		loginTotal.WithLabelValues("rejected").Inc()
		log.InfoContext(ctx, "login rejected by backend", slog.String("error", err.Error()))
		return session.Identity{}, err
	}

	var body loginResponse
	if err := resp.DecodeJSON(&body); err != nil {
		loginTotal.WithLabelValues("error").Inc()
		return session.Identity{}, apperrors.Internal(err)
	}
	if !body.Success {
		loginTotal.WithLabelValues("rejected").Inc()
		msg := body.Message
		if msg == "" {
			msg = "login failed"
		}
		return session.Identity{}, apperrors.Unauthorized(msg)
	}
	if body.Data.UserInfo == nil {
		loginTotal.WithLabelValues("error").Inc()
		return session.Identity{}, apperrors.Unauthorized("login response carried no user")
	}

	identity := *body.Data.UserInfo
	if !identity.IsAdmin() {
		loginTotal.WithLabelValues("forbidden").Inc()
		log.WarnContext(ctx, "non-admin login refused", slog.String("user_id", identity.ID))
		return session.Identity{}, apperrors.Forbidden("admin access required")
	}

	pair := session.TokenPair{AccessToken: body.Data.AccessToken, RefreshToken: body.Data.RefreshToken}
	if err := sess.Establish(ctx, identity, pair); err != nil {
		loginTotal.WithLabelValues("error").Inc()
		return session.Identity{}, err
	}

	loginTotal.WithLabelValues("success").Inc()
	log.InfoContext(ctx, "operator logged in", slog.String("admin_id", identity.ID))
	return identity, nil
}

// Logout ends the session locally. The backend keeps no server-side session
// to revoke.
func Logout(ctx context.Context, sess *session.Session) error {
	return sess.Clear(ctx)
}
