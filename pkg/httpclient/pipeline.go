package httpclient

import "context"

// RequestMiddleware rewrites a request before it is sent. Returning an error
// aborts the call without touching the network.
type RequestMiddleware func(ctx context.Context, req Request) (Request, error)

// ResponseHandler inspects the outcome of a send. It may return the outcome
// unchanged, replace it, or re-issue the request through resend (which runs
// the whole pipeline again).
type ResponseHandler func(ctx context.Context, req Request, resp *Response, err error, resend Sender) (*Response, error)

// Pipeline is an ordered middleware chain around a Sender. Request
// middleware runs in registration order before the send; response handlers
// run in registration order after it.
type Pipeline struct {
	next   Sender
	before []RequestMiddleware
	after  []ResponseHandler
}

// NewPipeline wraps next with an empty chain.
func NewPipeline(next Sender) *Pipeline {
	return &Pipeline{next: next}
}

// Before appends request middleware.
func (p *Pipeline) Before(mw ...RequestMiddleware) *Pipeline {
	p.before = append(p.before, mw...)
	return p
}

// After appends response handlers.
func (p *Pipeline) After(h ...ResponseHandler) *Pipeline {
	p.after = append(p.after, h...)
	return p
}

// Send runs the chain for one request.
func (p *Pipeline) Send(ctx context.Context, req Request) (*Response, error) {
	for _, mw := range p.before {
		var err error
		req, err = mw(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	resp, err := p.next.Send(ctx, req)

	for _, h := range p.after {
		resp, err = h(ctx, req, resp, err, p)
	}
	return resp, err
}

// SetHeader returns request middleware that sets key to value unless the
// request already carries it.
func SetHeader(key, value string) RequestMiddleware {
	return func(_ context.Context, req Request) (Request, error) {
		if req.Header.Get(key) != "" {
			return req, nil
		}
		return req.WithHeader(key, value), nil
	}
}
