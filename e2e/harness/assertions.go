package harness

import (
	"fmt"
	"strings"
	"testing"
)

// Assertions provides E2E-specific assertions.
type Assertions struct {
	t *testing.T
}

// NewAssertions creates an assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// OutputContains asserts the output contains all given strings.
func (a *Assertions) OutputContains(output string, expected ...string) {
	a.t.Helper()
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			a.t.Errorf("expected output to contain %q, got:\n%s", exp, truncate(output, 500))
		}
	}
}

// OutputNotContains asserts the output does not contain any of the given strings.
func (a *Assertions) OutputNotContains(output string, unexpected ...string) {
	a.t.Helper()
	for _, unexp := range unexpected {
		if strings.Contains(output, unexp) {
			a.t.Errorf("expected output NOT to contain %q, got:\n%s", unexp, truncate(output, 500))
		}
	}
}

// StatusCode asserts the response contains expected status code.
func (a *Assertions) StatusCode(output string, code int) {
	a.t.Helper()
	expected := fmt.Sprintf("%d", code)
	if !strings.Contains(output, expected) {
		a.t.Errorf("expected status code %d in output:\n%s", code, truncate(output, 500))
	}
}

// CookieHeader asserts the Cookie header echoed by the server.
func (a *Assertions) CookieHeader(output, expected string) {
	a.t.Helper()
	if !strings.Contains(output, "Cookie: "+expected) && !strings.Contains(output, `"Cookie":["`+expected+`"]`) {
		a.t.Errorf("expected Cookie header %q in output:\n%s", expected, truncate(output, 500))
	}
}

// NoError asserts the output doesn't contain error indicators.
func (a *Assertions) NoError(output string) {
	a.t.Helper()
	errorIndicators := []string{"Error:", "error:", "panic:", "PANIC:"}
	for _, ind := range errorIndicators {
		if strings.Contains(output, ind) {
			a.t.Errorf("unexpected error in output: found %q in:\n%s", ind, truncate(output, 500))
			return
		}
	}
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
