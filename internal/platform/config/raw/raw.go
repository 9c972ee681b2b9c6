// Package raw reads environment variables during bootstrap.
// It must not import the logger package, the logger is configured from it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a namespaced view over environment variables (e.g. "LOG_")
type Conf struct{ prefix string }

// New returns a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix returns a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// Get returns the trimmed value or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// GetBool accepts 1|true|yes|on, anything else non-empty is false
func (c Conf) GetBool(key string, def bool) bool {
	switch strings.ToLower(c.lookup(key)) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// GetInt parses a non-negative integer, falling back to def on blanks and garbage
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.lookup(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
