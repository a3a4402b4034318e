package config

import (
	"net/http"
	"net/url"
	"time"

	"github.com/ipwatchd/ipwatchd/internal/network"
	"github.com/ipwatchd/ipwatchd/internal/webhook"
)

// ValidatedConfig is the fully resolved, validated configuration the
// monitoring core and webhook dispatcher are built from. Building one
// from raw CLI flags is the job of FromFlags; CLI argument parsing and
// TOML config-file loading themselves remain out of scope for this package.
type ValidatedConfig struct {
	IpVersion      string
	URL            string
	Method         string
	Headers        http.Header
	BodyTemplate   string
	Filter         *network.FilterChain
	PollInterval   time.Duration
	PollOnly       bool
	Debounce       time.Duration
	Retry          webhook.RetryPolicy
	StateFile      string
	DryRun         bool
	Verbose        bool
}

func (c *ValidatedConfig) String() string {
	return "ValidatedConfig{url=" + c.URL + ", method=" + c.Method + ", pollOnly=" + boolStr(c.PollOnly) + "}"
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Validate checks invariants that span multiple fields and cannot be
// caught while a single flag is being parsed (e.g. the URL must parse,
// the retry policy's own constructor already validates its fields).
func (c *ValidatedConfig) Validate() *Error {
	if c.URL == "" {
		return Missing("url", "pass --url pointing at your webhook endpoint")
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return &Error{Kind: ErrInvalidURL, Field: "url", Detail: err.Error()}
	}
	if c.PollInterval <= 0 {
		return &Error{Kind: ErrInvalidDuration, Field: "poll_interval", Detail: "must be positive"}
	}
	if c.Debounce < 0 {
		return &Error{Kind: ErrInvalidDuration, Field: "debounce", Detail: "must not be negative"}
	}
	return nil
}
