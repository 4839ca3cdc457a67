package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is an immutable description of one backend call. Mutators return
// copies, so a descriptor can be re-sent after a failed attempt without the
// first attempt's changes leaking into it.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// Attempt is 0 for the first send and 1 once the request has been
	// re-issued after a token refresh.
	Attempt int

	// Credential is the bearer token the Authorization header was built
	// from by WithCredential. Empty when the caller set the header itself.
	Credential string
}

// NewRequest creates a descriptor for method and a path relative to the
// client's base URL.
func NewRequest(method, path string) Request {
	return Request{
		Method: method,
		Path:   path,
		Header: http.Header{},
	}
}

// WithQuery returns a copy carrying the given query parameters.
func (r Request) WithQuery(q url.Values) Request {
	cpy := r.clone()
	cpy.Query = cloneValues(q)
	return cpy
}

// WithHeader returns a copy with key set to value.
func (r Request) WithHeader(key, value string) Request {
	cpy := r.clone()
	cpy.Header.Set(key, value)
	return cpy
}

// WithBody returns a copy carrying body with the given content type.
func (r Request) WithBody(contentType string, body []byte) Request {
	cpy := r.clone()
	cpy.Body = append([]byte(nil), body...)
	if contentType != "" {
		cpy.Header.Set("Content-Type", contentType)
	}
	return cpy
}

// WithJSON returns a copy whose body is v encoded as JSON.
func (r Request) WithJSON(v any) (Request, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return r, fmt.Errorf("encode %s %s body: %w", r.Method, r.Path, err)
	}
	return r.WithBody("application/json", data), nil
}

// WithCredential returns a copy authorized with token as a bearer credential.
func (r Request) WithCredential(token string) Request {
	cpy := r.clone()
	cpy.Header.Set("Authorization", "Bearer "+token)
	cpy.Credential = token
	return cpy
}

// WithAttempt returns a copy marked with the given attempt number.
func (r Request) WithAttempt(n int) Request {
	cpy := r.clone()
	cpy.Attempt = n
	return cpy
}

// Retried reports whether this descriptor has already been re-issued once.
func (r Request) Retried() bool {
	return r.Attempt > 0
}

// String renders the descriptor as "METHOD /path" for logs and errors.
func (r Request) String() string {
	return r.Method + " " + r.Path
}

func (r Request) clone() Request {
	cpy := r
	cpy.Header = r.Header.Clone()
	if cpy.Header == nil {
		cpy.Header = http.Header{}
	}
	cpy.Query = cloneValues(r.Query)
	return cpy
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// Response is a fully read backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
