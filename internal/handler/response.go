package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/guard"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httputil"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/logger"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// writeError sends a terminated session back to the login page and every
// other error as a JSON envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrSessionTerminated) {
		logger.FromContext(r.Context()).InfoContext(r.Context(), "session terminated, redirecting to login",
			slog.String("path", r.URL.Path),
		)
		guard.ClearCookie(w, h.secure)
		http.Redirect(w, r, guard.LoginPath, http.StatusFound)
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperrors.InvalidInput("request body too large")
		}
		return nil, apperrors.InvalidInput("could not read request body")
	}
	if len(body) == 0 {
		return nil, apperrors.InvalidInput("request body is empty")
	}
	return body, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.InvalidInput("decode request body: " + err.Error())
	}
	return nil
}

// subjectID pulls the backend _id out of a decoded document.
func subjectID(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var doc struct {
		ID string `json:"_id"`
	}
	if json.Unmarshal(raw, &doc) != nil {
		return ""
	}
	return doc.ID
}
