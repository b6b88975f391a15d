package reasoning

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// SessionConfig fixes the connection bound, connect timeout and headers of a Session.
type SessionConfig struct {
	APIKey         string
	UserAgent      string
	MaxConns       int
	ConnectTimeout time.Duration
}

// Session owns the pooled HTTP client used for every reasoning call.
// At most one client is live at a time; a closed session is rebuilt on the next Ensure.
type Session struct {
	cfg SessionConfig

	mu        sync.Mutex
	client    *http.Client
	transport *http.Transport
}

func NewSession(cfg SessionConfig) *Session {
	return &Session{cfg: cfg}
}

// Ensure returns the live client, creating it if absent or closed.
func (s *Session) Ensure() *http.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client
	}

	dialer := &net.Dialer{Timeout: s.cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	s.transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxConnsPerHost:     s.cfg.MaxConns,
		MaxIdleConnsPerHost: s.cfg.MaxConns,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: s.cfg.ConnectTimeout,
		ForceAttemptHTTP2:   true,
	}
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+s.cfg.APIKey)
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", s.cfg.UserAgent)

	s.client = &http.Client{Transport: &headerTransport{base: s.transport, headers: headers}}
	return s.client
}

// Active reports whether a client is currently live.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Close releases idle connections and drops the client. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport != nil {
		s.transport.CloseIdleConnections()
	}
	s.transport = nil
	s.client = nil
}

// headerTransport stamps the session headers on every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		r.Header[k] = v
	}
	return t.base.RoundTrip(r)
}
