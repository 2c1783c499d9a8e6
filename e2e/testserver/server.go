// Package testserver provides an HTTP test server for E2E tests that
// records the cookies exchanged with each request.
package testserver

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// Exchange is one request served, seen from the cookie side.
type Exchange struct {
	Method string
	Path   string

	// Cookie is the raw Cookie request header.
	Cookie string

	// Received holds the cookies parsed from the request.
	Received []*http.Cookie

	// SetCookie holds the Set-Cookie headers of the response.
	SetCookie []string
}

// CookieNames returns the names of the received cookies in header order.
func (e *Exchange) CookieNames() []string {
	names := make([]string, 0, len(e.Received))
	for _, c := range e.Received {
		names = append(names, c.Name)
	}
	return names
}

// Server wraps httptest.Server and records every exchange.
type Server struct {
	*httptest.Server
	mu        sync.Mutex
	exchanges []*Exchange
}

// New creates a test server with the given routes.
func New(routes map[string]http.HandlerFunc) *Server {
	s := &Server{}

	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, s.record(handler))
	}

	s.Server = httptest.NewServer(mux)
	return s
}

// record keeps the cookies in and out of h. Set-Cookie is read from the
// header map after h returns, which still holds what was written.
func (s *Server) record(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := &Exchange{
			Method:   r.Method,
			Path:     r.URL.Path,
			Cookie:   r.Header.Get("Cookie"),
			Received: r.Cookies(),
		}
		s.mu.Lock()
		s.exchanges = append(s.exchanges, e)
		s.mu.Unlock()

		h(w, r)

		s.mu.Lock()
		e.SetCookie = w.Header().Values("Set-Cookie")
		s.mu.Unlock()
	}
}

// LastExchange returns the most recent exchange, or nil.
func (s *Server) LastExchange() *Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exchanges) == 0 {
		return nil
	}
	return s.exchanges[len(s.exchanges)-1]
}

// CookiesSentTo returns the Cookie header of every request to path, oldest
// first.
func (s *Server) CookiesSentTo(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var headers []string
	for _, e := range s.exchanges {
		if e.Path == path {
			headers = append(headers, e.Cookie)
		}
	}
	return headers
}

// RequestCount returns the number of recorded exchanges.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exchanges)
}

// ClearRequests forgets recorded exchanges.
func (s *Server) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = nil
}
