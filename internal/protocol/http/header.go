package http

import (
	"fmt"
	"strings"

	"github.com/artpar/impit/internal/cookies"
)

// ParseCookieHeader splits a Cookie header value ("a=1; b=2") into pairs,
// keeping their order. Empty segments are skipped; a segment without '='
// is an error.
func ParseCookieHeader(header string) ([]cookies.Pair, error) {
	var pairs []cookies.Pair
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid cookie format: %q (expected 'name=value')", part)
		}
		pairs = append(pairs, cookies.Pair{
			Name:  strings.TrimSpace(name),
			Value: strings.Trim(strings.TrimSpace(value), `"`),
		})
	}
	return pairs, nil
}
