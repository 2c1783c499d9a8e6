package cookies

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestCookie_IsExpired(t *testing.T) {
	t.Run("returns false for session cookie (zero expiry)", func(t *testing.T) {
		c := &Cookie{Name: "session", Value: "abc123"}
		if c.IsExpired() {
			t.Error("expected session cookie to not be expired")
		}
	})

	t.Run("returns false for future expiry", func(t *testing.T) {
		c := &Cookie{
			Name:       "token",
			Attributes: Attributes{Expires: time.Now().Add(24 * time.Hour)},
		}
		if c.IsExpired() {
			t.Error("expected future cookie to not be expired")
		}
	})

	t.Run("returns true for past expiry", func(t *testing.T) {
		c := &Cookie{
			Name:       "old",
			Attributes: Attributes{Expires: time.Now().Add(-24 * time.Hour)},
		}
		if !c.IsExpired() {
			t.Error("expected past cookie to be expired")
		}
	})

	t.Run("expires exactly at the expiry instant", func(t *testing.T) {
		at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		c := &Cookie{Name: "edge", Attributes: Attributes{Expires: at}}
		if c.ExpiredAt(at.Add(-time.Second)) {
			t.Error("expected cookie to be live before expiry")
		}
		if !c.ExpiredAt(at) {
			t.Error("expected cookie to be expired at expiry")
		}
	})
}

func TestCookie_IsSession(t *testing.T) {
	if !(&Cookie{Name: "session"}).IsSession() {
		t.Error("expected cookie with zero expiry to be session cookie")
	}

	c := &Cookie{Name: "persistent", Attributes: Attributes{Expires: time.Now().Add(time.Hour)}}
	if c.IsSession() {
		t.Error("expected cookie with expiry to not be session cookie")
	}
}

func TestCookie_Clone(t *testing.T) {
	c := Cookie{
		Name:       "a",
		Attributes: Attributes{Extra: map[string]string{"Priority": "High"}},
	}
	cp := c.Clone()
	cp.Attributes.Extra["Priority"] = "Low"

	if c.Attributes.Extra["Priority"] != "High" {
		t.Error("expected clone to not share the Extra map")
	}
}

func TestCookie_ToHTTPCookie(t *testing.T) {
	t.Run("converts basic cookie", func(t *testing.T) {
		expires := time.Now().Add(time.Hour)
		c := &Cookie{
			Name:   "test",
			Value:  "value123",
			Domain: "example.com",
			Path:   "/api",
			Attributes: Attributes{
				Secure:   true,
				HttpOnly: true,
				Expires:  expires,
			},
		}

		hc := c.ToHTTPCookie()

		if hc.Name != "test" || hc.Value != "value123" {
			t.Errorf("expected test=value123, got %s=%s", hc.Name, hc.Value)
		}
		if hc.Domain != "example.com" {
			t.Errorf("expected domain 'example.com', got %s", hc.Domain)
		}
		if hc.Path != "/api" {
			t.Errorf("expected path '/api', got %s", hc.Path)
		}
		if !hc.Secure || !hc.HttpOnly {
			t.Error("expected Secure and HttpOnly to be true")
		}
		if !hc.Expires.Equal(expires) {
			t.Errorf("expected expires %v, got %v", expires, hc.Expires)
		}
	})

	tests := []struct {
		sameSite string
		want     http.SameSite
	}{
		{"lax", http.SameSiteLaxMode},
		{"Strict", http.SameSiteStrictMode},
		{"none", http.SameSiteNoneMode},
		{"", http.SameSiteDefaultMode},
	}
	for _, tt := range tests {
		t.Run("converts SameSite "+tt.sameSite, func(t *testing.T) {
			c := &Cookie{Name: "test", Attributes: Attributes{SameSite: tt.sameSite}}
			if got := c.ToHTTPCookie().SameSite; got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFromHTTPCookie(t *testing.T) {
	t.Run("creates cookie from http.Cookie", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/api")
		hc := &http.Cookie{
			Name:     "session",
			Value:    "abc123",
			Path:     "/api",
			Secure:   true,
			HttpOnly: true,
			Expires:  time.Now().Add(time.Hour),
			SameSite: http.SameSiteLaxMode,
		}

		c := FromHTTPCookie(u, hc)

		if c.Name != "session" || c.Value != "abc123" {
			t.Errorf("expected session=abc123, got %s=%s", c.Name, c.Value)
		}
		if c.Domain != "example.com" {
			t.Errorf("expected domain 'example.com', got %s", c.Domain)
		}
		if c.Path != "/api" {
			t.Errorf("expected path '/api', got %s", c.Path)
		}
		if !c.Attributes.Secure || !c.Attributes.HttpOnly {
			t.Error("expected Secure and HttpOnly to be true")
		}
		if c.Attributes.SameSite != "lax" {
			t.Errorf("expected SameSite 'lax', got %s", c.Attributes.SameSite)
		}
	})

	t.Run("uses URL hostname when domain not set", func(t *testing.T) {
		u, _ := url.Parse("https://API.example.com/")
		c := FromHTTPCookie(u, &http.Cookie{Name: "token", Value: "xyz"})

		if c.Domain != "api.example.com" {
			t.Errorf("expected domain 'api.example.com', got %s", c.Domain)
		}
		if !c.Attributes.HostOnly {
			t.Error("expected host-only cookie")
		}
	})

	t.Run("leaves domain empty without a URL", func(t *testing.T) {
		c := FromHTTPCookie(nil, &http.Cookie{Name: "token", Value: "xyz"})
		if c.Domain != "" || c.Attributes.HostOnly {
			t.Errorf("expected unspecified domain, got %q", c.Domain)
		}
	})

	t.Run("removes leading dot from domain", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/")
		c := FromHTTPCookie(u, &http.Cookie{Name: "token", Value: "xyz", Domain: ".example.com"})

		if c.Domain != "example.com" {
			t.Errorf("expected domain 'example.com', got %s", c.Domain)
		}
		if c.Attributes.HostOnly {
			t.Error("expected domain cookie, not host-only")
		}
	})

	t.Run("defaults path to /", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/api/v1")
		c := FromHTTPCookie(u, &http.Cookie{Name: "token", Value: "xyz"})

		if c.Path != "/" {
			t.Errorf("expected path '/', got %s", c.Path)
		}
	})

	t.Run("converts MaxAge to expiry time", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/")
		before := time.Now()
		c := FromHTTPCookie(u, &http.Cookie{Name: "token", Value: "xyz", MaxAge: 3600})
		after := time.Now()

		if c.Attributes.Expires.Before(before.Add(time.Hour)) || c.Attributes.Expires.After(after.Add(time.Hour)) {
			t.Errorf("expected expires around 1 hour from now, got %v", c.Attributes.Expires)
		}
	})

	t.Run("handles negative MaxAge (delete cookie)", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/")
		c := FromHTTPCookie(u, &http.Cookie{Name: "token", Value: "xyz", MaxAge: -1})

		if !c.Attributes.Expires.Equal(time.Unix(0, 0)) {
			t.Errorf("expected Unix epoch for deleted cookie, got %v", c.Attributes.Expires)
		}
	})

	t.Run("keeps unparsed attributes as extra metadata", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/")
		hc := &http.Cookie{Name: "token", Value: "xyz", Unparsed: []string{"Priority=High", "Partitioned"}}

		c := FromHTTPCookie(u, hc)

		if c.Attributes.Extra["Priority"] != "High" {
			t.Errorf("expected Priority=High, got %v", c.Attributes.Extra)
		}
		if _, ok := c.Attributes.Extra["Partitioned"]; !ok {
			t.Error("expected Partitioned flag to be kept")
		}
	})

	t.Run("sets CreatedAt and UpdatedAt", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/")
		before := time.Now()
		c := FromHTTPCookie(u, &http.Cookie{Name: "token", Value: "xyz"})
		after := time.Now()

		if c.CreatedAt.Before(before) || c.CreatedAt.After(after) {
			t.Error("expected CreatedAt to be set to current time")
		}
		if c.UpdatedAt.Before(before) || c.UpdatedAt.After(after) {
			t.Error("expected UpdatedAt to be set to current time")
		}
	})
}
