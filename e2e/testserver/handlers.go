package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Handlers provides reusable response handlers.
type Handlers struct{}

// JSON returns a handler that responds with JSON.
func (Handlers) JSON(code int, data interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(data)
	}
}

// Echo returns a handler that echoes request details.
func (Handlers) Echo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"method":  r.Method,
			"path":    r.URL.Path,
			"query":   r.URL.Query(),
			"headers": r.Header,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// Error returns a handler that responds with an error.
func (Handlers) Error(code int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"error": message})
	}
}

// SetCookies returns a handler that sets the given cookies and redirects
// to location when it is non-empty.
func (Handlers) SetCookies(location string, cookies ...*http.Cookie) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, c := range cookies {
			http.SetCookie(w, c)
		}
		if location != "" {
			http.Redirect(w, r, location, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// EchoCookies returns a handler that echoes the Cookie request header.
func (Handlers) EchoCookies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "Cookie: %s\n", r.Header.Get("Cookie"))
	}
}
