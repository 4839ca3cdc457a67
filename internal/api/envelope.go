package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
)

// envelope is the backend's response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call sends req and unwraps the envelope. A 2xx reply with success:false is
// reported as a 422 StatusError carrying the backend's message.
func call(ctx context.Context, s httpclient.Sender, req httpclient.Request) (json.RawMessage, error) {
	resp, err := s.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, &httpclient.StatusError{
			Status:  http.StatusBadGateway,
			Code:    "BAD_BACKEND_RESPONSE",
			Message: "backend returned a malformed response",
			Request: req,
			Err:     err,
		}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "backend rejected the request"
		}
		return nil, &httpclient.StatusError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "BACKEND_REJECTED",
			Message: msg,
			Request: req,
		}
	}
	return env.Data, nil
}

// pickItem returns the first present key of an object payload, or the
// payload itself when none matches.
func pickItem(data json.RawMessage, keys ...string) json.RawMessage {
	var obj map[string]json.RawMessage
	if json.Unmarshal(data, &obj) != nil {
		return data
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok && !isNull(v) {
			return v
		}
	}
	return data
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

type listPayload struct {
	Pagination struct {
		TotalEntries int `json:"totalEntries"`
	} `json:"pagination"`
}

// decodeList reads {<listKey>, pagination.totalEntries}, falling back to
// "result" when listKey is absent. A bare array is accepted for endpoints
// that do not paginate; its total is its length.
func decodeList[T any](data json.RawMessage, listKey string) ([]T, int, error) {
	items := []T{}
	if isNull(data) {
		return items, 0, nil
	}

	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, err
		}
		return items, len(items), nil
	}

	var lp listPayload
	if err := json.Unmarshal(trimmed, &lp); err != nil {
		return nil, 0, err
	}
	raw := pickItem(trimmed, listKey, "result")
	if !isNull(raw) && bytes.TrimSpace(raw)[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, 0, err
		}
	}
	total := lp.Pagination.TotalEntries
	if total < len(items) {
		total = len(items)
	}
	return items, total, nil
}

func jsonUnmarshal(data json.RawMessage, v any, what string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}
