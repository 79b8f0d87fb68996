package telemetry

import (
	"strings"
)

// DefaultExclude lists the request attributes never sent to the collector.
var DefaultExclude = []string{
	"request.headers.cookie",
	"request.headers.authorization",
	"request.headers.proxy-authorization",
	"request.headers.set-cookie*",
	"request.headers.x-*",
}

// Matcher decides which attribute keys are excluded. A pattern matches a key
// exactly, or as a prefix when it ends in "*". Matching is case-insensitive.
type Matcher struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewMatcher compiles patterns, ignoring blank entries.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			m.prefixes = append(m.prefixes, prefix)
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

// Excluded reports whether key matches any pattern.
func (m *Matcher) Excluded(key string) bool {
	if m == nil {
		return false
	}
	key = strings.ToLower(key)
	if _, ok := m.exact[key]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
