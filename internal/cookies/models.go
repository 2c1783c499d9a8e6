package cookies

import (
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie is a single stored cookie: a name/value pair qualified by its
// scope (domain and path) plus metadata the jar keeps but never enforces.
type Cookie struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string     `json:"name" yaml:"name"`
	Value      string     `json:"value" yaml:"value"`
	Domain     string     `json:"domain" yaml:"domain"`
	Path       string     `json:"path" yaml:"path"`
	Attributes Attributes `json:"attributes" yaml:"attributes"`
	CreatedAt  time.Time  `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Attributes is the opaque metadata bag carried with a cookie.
type Attributes struct {
	Secure   bool              `json:"secure,omitempty" yaml:"secure,omitempty"`
	HttpOnly bool              `json:"http_only,omitempty" yaml:"http_only,omitempty"`
	HostOnly bool              `json:"host_only,omitempty" yaml:"host_only,omitempty"`
	SameSite string            `json:"same_site,omitempty" yaml:"same_site,omitempty"`
	Expires  time.Time         `json:"expires,omitzero" yaml:"expires,omitempty"`
	Extra    map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Key identifies a cookie within a store.
type Key struct {
	Domain string
	Path   string
	Name   string
}

// Key returns the (domain, path, name) triple of the cookie.
func (c *Cookie) Key() Key {
	return Key{Domain: c.Domain, Path: c.Path, Name: c.Name}
}

// Clone returns a deep copy of the cookie.
func (c Cookie) Clone() Cookie {
	if c.Attributes.Extra != nil {
		c.Attributes.Extra = maps.Clone(c.Attributes.Extra)
	}
	return c
}

// IsExpired returns true if the cookie has expired.
func (c *Cookie) IsExpired() bool {
	return c.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the cookie is expired at t.
func (c *Cookie) ExpiredAt(t time.Time) bool {
	if c.Attributes.Expires.IsZero() {
		return false // Session cookie, never expires
	}
	return !t.Before(c.Attributes.Expires)
}

// IsSession returns true if this is a session cookie (no expiration).
func (c *Cookie) IsSession() bool {
	return c.Attributes.Expires.IsZero()
}

// ToHTTPCookie converts to standard http.Cookie.
func (c *Cookie) ToHTTPCookie() *http.Cookie {
	sameSite := http.SameSiteDefaultMode
	switch strings.ToLower(c.Attributes.SameSite) {
	case "lax":
		sameSite = http.SameSiteLaxMode
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Attributes.Secure,
		HttpOnly: c.Attributes.HttpOnly,
		SameSite: sameSite,
		Expires:  c.Attributes.Expires,
	}
}

// FromHTTPCookie creates a Cookie from an http.Cookie received for u.
// u may be nil when the cookie did not come from a response.
func FromHTTPCookie(u *url.URL, hc *http.Cookie) *Cookie {
	var attrs Attributes

	domain := strings.ToLower(hc.Domain)
	if domain == "" && u != nil {
		domain = strings.ToLower(u.Hostname())
		attrs.HostOnly = true
	}
	// Remove leading dot if present (normalize)
	domain = strings.TrimPrefix(domain, ".")

	path := hc.Path
	if path == "" {
		path = "/"
	}

	switch hc.SameSite {
	case http.SameSiteLaxMode:
		attrs.SameSite = "lax"
	case http.SameSiteStrictMode:
		attrs.SameSite = "strict"
	case http.SameSiteNoneMode:
		attrs.SameSite = "none"
	}

	attrs.Expires = hc.Expires
	if hc.MaxAge > 0 {
		attrs.Expires = time.Now().Add(time.Duration(hc.MaxAge) * time.Second)
	} else if hc.MaxAge < 0 {
		// MaxAge < 0 means delete cookie immediately
		attrs.Expires = time.Unix(0, 0)
	}
	attrs.Secure = hc.Secure
	attrs.HttpOnly = hc.HttpOnly

	if len(hc.Unparsed) > 0 {
		attrs.Extra = make(map[string]string, len(hc.Unparsed))
		for _, raw := range hc.Unparsed {
			k, v, _ := strings.Cut(raw, "=")
			attrs.Extra[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	now := time.Now()
	return &Cookie{
		Name:       hc.Name,
		Value:      hc.Value,
		Domain:     domain,
		Path:       path,
		Attributes: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// QueryOptions for filtering cookies.
type QueryOptions struct {
	Domain         string // Filter by domain
	Path           string // Filter by path
	Name           string // Filter by cookie name
	IncludeExpired bool   // Include expired cookies
	Limit          int    // Max results (0 = no limit)
}
