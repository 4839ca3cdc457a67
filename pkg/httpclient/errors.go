package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
)

// StatusError is returned for every failed backend call. Status is 0 when no
// response was received (network failure, cancellation). Request is the
// descriptor that was sent, so response handlers can decide whether and how
// to re-issue it.
type StatusError struct {
	Status  int
	Code    string
	Message string
	Request Request
	Err     error
}

func (e *StatusError) Error() string {
	var b strings.Builder
	b.WriteString(e.Request.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Is lets callers match backend failures against the shared sentinels,
// e.g. errors.Is(err, apperrors.ErrUnauthorized) for a 401.
func (e *StatusError) Is(target error) bool {
	switch e.Status {
	case http.StatusUnauthorized:
		return target == apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return target == apperrors.ErrForbidden
	case http.StatusNotFound:
		return target == apperrors.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return target == apperrors.ErrInvalidInput
	case http.StatusConflict:
		return target == apperrors.ErrConflict
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return target == apperrors.ErrServiceUnavail
	case 0:
		return target == apperrors.ErrServiceUnavail
	}
	return false
}

// AsAppError converts the failure into the AppError the console returns to
// the operator, keeping the backend's status and message.
func (e *StatusError) AsAppError() *apperrors.AppError {
	status := e.Status
	if status == 0 {
		status = http.StatusBadGateway
	}
	code := e.Code
	if code == "" {
		code = codeForStatus(status)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &apperrors.AppError{Code: code, Message: msg, Status: status, Err: e}
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusUnauthorized
}

// downstreamError covers both error body shapes seen from the backend:
// the envelope {success:false, message} and {error:{code,message}}.
type downstreamError struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError translates a non-2xx response into a *StatusError,
// preserving the backend's message when the body is structured.
func ParseResponseError(resp *Response, req Request) error {
	se := &StatusError{Status: resp.Status, Request: req}

	var body downstreamError
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &body) == nil {
		switch {
		case body.Error != nil:
			se.Code = body.Error.Code
			se.Message = body.Error.Message
		default:
			se.Code = body.Code
			se.Message = body.Message
		}
	}
	if se.Message == "" && len(resp.Body) > 0 && len(resp.Body) < 512 && !json.Valid(resp.Body) {
		se.Message = strings.TrimSpace(string(resp.Body))
	}
	return se
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return "INVALID_INPUT"
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusConflict:
		return "CONFLICT"
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return "BACKEND_UNAVAILABLE"
	case status >= 500:
		return "BACKEND_ERROR"
	default:
		return "REQUEST_FAILED"
	}
}
