package config

import (
	"net/http"
	"time"

	"github.com/ipwatchd/ipwatchd/internal/network"
	"github.com/ipwatchd/ipwatchd/internal/webhook"
)

// FlagInput is the subset of parsed CLI flags FromFlags needs. It is
// defined here, independent of the flag package, so this package does not
// depend on pkg/cli (which depends on this package for its defaults).
type FlagInput struct {
	URL          string
	Method       string
	Headers      http.Header
	BodyTemplate string
	IpVersion    string
	PollInterval time.Duration
	PollOnly     bool
	Debounce     time.Duration
	ExcludeRegex string
	IncludeRegex string
	ExcludeLoop  bool
	ExcludeVirt  bool
	StateFile    string
	DryRun       bool
	Verbose      bool
}

// FromFlags resolves a FlagInput into a ValidatedConfig, applying defaults
// for anything left at its zero value. It returns a *Error (not a bare
// error) so callers can map straight to an exit code.
func FromFlags(in FlagInput) (*ValidatedConfig, *Error) {
	cfg := Defaults()
	cfg.URL = in.URL
	if in.Method != "" {
		cfg.Method = in.Method
	}
	cfg.Headers = in.Headers
	cfg.BodyTemplate = in.BodyTemplate
	if in.IpVersion != "" {
		cfg.IpVersion = in.IpVersion
	}
	if in.PollInterval > 0 {
		cfg.PollInterval = in.PollInterval
	}
	cfg.PollOnly = in.PollOnly
	if in.Debounce > 0 {
		cfg.Debounce = in.Debounce
	}
	cfg.StateFile = in.StateFile
	cfg.DryRun = in.DryRun
	cfg.Verbose = in.Verbose

	retry, err := webhook.NewRetryPolicy(webhook.DefaultMaxAttempts, webhook.DefaultInitialDelay, webhook.DefaultMaxDelay, webhook.DefaultMultiplier)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidRetry, Field: "retry", Detail: err.Error()}
	}
	cfg.Retry = retry

	chain := network.NewFilterChain()
	if in.ExcludeLoop {
		chain.AddExclude(network.NewKindFilter(network.KindLoopback()))
	}
	if in.ExcludeVirt {
		chain.AddExclude(network.NewKindFilter(network.KindVirtual()))
	}
	if in.ExcludeRegex != "" {
		f, rerr := network.NewNameRegexFilter(in.ExcludeRegex)
		if rerr != nil {
			return nil, &Error{Kind: ErrInvalidRegex, Field: "exclude-regex", Detail: rerr.Error()}
		}
		chain.AddExclude(f)
	}
	if in.IncludeRegex != "" {
		f, rerr := network.NewNameRegexFilter(in.IncludeRegex)
		if rerr != nil {
			return nil, &Error{Kind: ErrInvalidRegex, Field: "include-regex", Detail: rerr.Error()}
		}
		chain.AddInclude(f)
	}
	cfg.Filter = chain

	if cfg.BodyTemplate != "" {
		if _, rerr := validateTemplateSyntax(cfg.BodyTemplate); rerr != nil {
			return nil, &Error{Kind: ErrInvalidTemplate, Field: "body-template", Detail: rerr.Error()}
		}
	}

	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}
	return cfg, nil
}
