package auth

import (
	"context"
	"log/slog"
	"net/http/cookiejar"
	"sync"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
)

// Clients builds the public and private backend senders for a session. All
// senders share one transport and one circuit breaker; each session keeps
// its own cookie jar while credentials are enabled.
type Clients struct {
	core      *httpclient.Client
	breaker   *httpclient.CircuitBreaker
	refresher *Refresher
	logger    *slog.Logger

	mu   sync.Mutex
	jars map[string]*cookiejar.Jar
}

// NewClients creates the factory. breaker may be nil.
func NewClients(core *httpclient.Client, breaker *httpclient.CircuitBreaker, logger *slog.Logger) *Clients {
	c := &Clients{
		core:    core,
		breaker: breaker,
		logger:  logger,
		jars:    make(map[string]*cookiejar.Jar),
	}
	c.refresher = NewRefresher(c.Public, logger)
	return c
}

// Refresher returns the shared refresh coordinator.
func (c *Clients) Refresher() *Refresher { return c.refresher }

// Public returns the sender used for login and token refresh.
func (c *Clients) Public(sessionID string) httpclient.Sender {
	var s httpclient.Sender = c.core
	if c.core.WithCredentials() {
		s = c.core.WithJar(c.jar(sessionID))
	}
	if c.breaker != nil {
		s = c.breaker.Wrap(s)
	}
	return s
}

// Private returns the authenticated sender for sess.
func (c *Clients) Private(sess *session.Session) httpclient.Sender {
	return NewPrivateClient(c.Public(sess.ID()), sess, c.refresher, c.logger)
}

// Forget drops the cookie jar of a cleared session. It matches
// session.ClearHook.
func (c *Clients) Forget(_ context.Context, sessionID string, _ session.State) {
	c.mu.Lock()
	delete(c.jars, sessionID)
	c.mu.Unlock()
}

func (c *Clients) jar(sessionID string) *cookiejar.Jar {
	c.mu.Lock()
	defer c.mu.Unlock()
	if j, ok := c.jars[sessionID]; ok {
		return j
	}
	j, _ := cookiejar.New(nil)
	c.jars[sessionID] = j
	return j
}

func (c *Clients) jarCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jars)
}
