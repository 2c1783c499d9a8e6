package http

import (
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/artpar/impit/internal/cookies"
	"golang.org/x/net/publicsuffix"
)

// CookieJar adapts a cookies.Jar to net/http. It applies the RFC 6265
// rules the jar itself leaves to the transport: domain and path matching,
// Secure, expiry and public suffix rejection.
//
// The wrapped jar is only touched under the adapter's lock; code that
// needs the jar directly while requests are in flight goes through With.
type CookieJar struct {
	mu  sync.RWMutex
	jar *cookies.Jar
	now func() time.Time
}

var _ http.CookieJar = (*CookieJar)(nil)

// NewCookieJar wraps jar. A nil jar starts empty.
func NewCookieJar(jar *cookies.Jar) *CookieJar {
	if jar == nil {
		jar = cookies.New()
	}
	return &CookieJar{jar: jar, now: time.Now}
}

// With runs fn with exclusive access to the wrapped jar.
func (cj *CookieJar) With(fn func(*cookies.Jar) error) error {
	cj.mu.Lock()
	defer cj.mu.Unlock()
	return fn(cj.jar)
}

// SetCookies implements http.CookieJar.
func (cj *CookieJar) SetCookies(u *url.URL, received []*http.Cookie) {
	if u == nil || !isHTTPScheme(u.Scheme) {
		return
	}
	host := canonicalHost(u)

	cj.mu.Lock()
	defer cj.mu.Unlock()

	now := cj.now()
	for _, hc := range received {
		c := cookies.FromHTTPCookie(u, hc)
		if !acceptDomain(host, c) {
			continue
		}
		if hc.Path == "" || !strings.HasPrefix(hc.Path, "/") {
			c.Path = defaultPath(u.Path)
		}

		if hc.MaxAge < 0 || c.ExpiredAt(now) {
			cj.jar.Delete(c.Name, cookies.WithDomain(c.Domain), cookies.WithPath(c.Path))
			continue
		}
		cj.jar.SetCookie(*c)
	}
}

// Cookies implements http.CookieJar.
func (cj *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	cj.mu.RLock()
	defer cj.mu.RUnlock()

	matched := matching(cj.jar, u, cj.now())
	out := make([]*http.Cookie, 0, len(matched))
	for _, c := range matched {
		out = append(out, c.ToHTTPCookie())
	}
	return out
}

// CookieHeader returns the Cookie request header value for u: the
// name=value pairs of every cookie in jar that applies to u, joined
// with "; ". It returns "" when nothing applies.
func CookieHeader(jar *cookies.Jar, u *url.URL) string {
	matched := matching(jar, u, time.Now())
	parts := make([]string, 0, len(matched))
	for _, c := range matched {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// matching selects the cookies of jar to send to u, longest path first
// and otherwise in jar order. Cookies with an empty domain were set
// without scope by the caller and go to every host.
func matching(jar *cookies.Jar, u *url.URL, now time.Time) []cookies.Cookie {
	if jar == nil || u == nil {
		return nil
	}

	host := canonicalHost(u)
	secure := u.Scheme == "https" || u.Scheme == "wss"
	path := u.Path
	if path == "" {
		path = "/"
	}

	var selected []cookies.Cookie
	for _, c := range jar.Cookies() {
		if c.Attributes.Secure && !secure {
			continue
		}
		if c.ExpiredAt(now) {
			continue
		}
		if !hostMatch(host, &c) || !pathMatch(path, c.Path) {
			continue
		}
		selected = append(selected, c)
	}

	slices.SortStableFunc(selected, func(a, b cookies.Cookie) int {
		return len(b.Path) - len(a.Path)
	})
	return selected
}

func hostMatch(host string, c *cookies.Cookie) bool {
	switch {
	case c.Domain == "":
		return true
	case c.Attributes.HostOnly:
		return host == c.Domain
	default:
		return domainMatch(host, c.Domain)
	}
}

// acceptDomain applies the Set-Cookie domain checks of RFC 6265 5.3.
func acceptDomain(host string, c *cookies.Cookie) bool {
	if c.Attributes.HostOnly {
		return true
	}
	if net.ParseIP(host) != nil {
		return c.Domain == host
	}
	if !domainMatch(host, c.Domain) {
		return false
	}
	if suffix, _ := publicsuffix.PublicSuffix(c.Domain); suffix == c.Domain {
		// A public suffix is only acceptable as a host-only cookie
		// for that exact host.
		if host != c.Domain {
			return false
		}
		c.Attributes.HostOnly = true
	}
	return true
}

// domainMatch reports whether host is domain or a subdomain of it.
func domainMatch(host, domain string) bool {
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain) && net.ParseIP(host) == nil
}

// pathMatch implements RFC 6265 5.1.4.
func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

// defaultPath implements RFC 6265 5.1.4 default-path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func canonicalHost(u *url.URL) string {
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

func isHTTPScheme(scheme string) bool {
	switch scheme {
	case "http", "https", "ws", "wss":
		return true
	}
	return false
}
