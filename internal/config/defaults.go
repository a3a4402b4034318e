// Package config defines the validated configuration surface the
// monitoring core is driven from, and the defaults and exit codes used
// when a field is left unset.
package config

import (
	"time"

	"github.com/ipwatchd/ipwatchd/internal/webhook"
)

const (
	DefaultMethod       = "POST"
	DefaultPollInterval = 60 * time.Second
	DefaultDebounce     = 2 * time.Second
)

// Defaults returns a ValidatedConfig populated with every default value,
// useful as a base a CLI layer can overlay flags on top of.
func Defaults() *ValidatedConfig {
	return &ValidatedConfig{
		Method:       DefaultMethod,
		PollInterval: DefaultPollInterval,
		Debounce:     DefaultDebounce,
		Retry:        webhook.DefaultRetryPolicy(),
		IpVersion:    "both",
	}
}
