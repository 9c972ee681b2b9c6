// Package config handles application configuration via environment variables
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g. "PROVISION_", "SERVICE_PGSQL_")
// Use New() for global access, or Prefix("PROVISION_") for module scopes
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key returns the fully-qualified env var name for k
func (c Conf) Key(k string) string { return c.prefix + k }

func (c Conf) get(key string) string { return strings.TrimSpace(os.Getenv(c.Key(key))) }

// MustString panics if the given key is missing or empty
func (c Conf) MustString(key string) string {
	v := c.get(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.Key(key)).Msg("missing required env")
	}
	return v
}

// Require ensures that all given keys are present (non-empty). Panics otherwise
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.get(k) == "" {
			logger.Get().Panic().Str("key", c.Key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.get(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayFile returns the value when it names an existing regular file
// ok is false when the key is unset or the path is missing or a directory
func (c Conf) MayFile(key string) (path string, ok bool) {
	p := c.get(key)
	if p == "" {
		return "", false
	}
	return p, IsFile(p)
}

// MayEnum returns the value (lowercased) if it is one of allowed, def when unset
func (c Conf) MayEnum(key, def string, allowed ...string) (string, error) {
	v := c.MayString(key, def)
	return OneOf(c.Key(key), v, allowed...)
}

// OneOf matches v case-insensitively against allowed and returns the canonical spelling
func OneOf(name, v string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a, nil
		}
	}
	return "", perr.Newf(perr.ErrorCodeConfig, "invalid %s %q: must be one of %v", name, v, allowed)
}

// IsFile reports whether p exists and is not a directory
func IsFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
