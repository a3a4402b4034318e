// Package cli parses the command-line flags ipwatchd needs to build a
// config.ValidatedConfig. It deliberately does not parse a TOML config
// file or offer an init subcommand — those remain out of scope.
package cli

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ipwatchd/ipwatchd/internal/config"
	"github.com/ipwatchd/ipwatchd/pkg/version"
)

// Flags holds the raw command-line input before it is resolved into a
// config.ValidatedConfig.
type Flags struct {
	URL           string
	Method        string
	Headers       []string
	BodyTemplate  string
	IpVersion     string
	PollInterval  time.Duration
	PollOnly      bool
	Debounce      time.Duration
	ExcludeRegex  string
	IncludeRegex  string
	ExcludeLoop   bool
	ExcludeVirt   bool
	StateFile     string
	DryRun        bool
	Verbose       bool
	LogLevel      string
}

// ParseFlags parses command line arguments into a Flags value.
func ParseFlags() *Flags {
	f := &Flags{}
	var headers headerList

	flag.StringVar(&f.URL, "url", "", "Webhook URL to notify on IP changes")
	flag.StringVar(&f.Method, "method", config.DefaultMethod, "HTTP method for webhook requests")
	flag.Var(&headers, "header", "Extra header to send with each webhook request, as Key:Value (repeatable)")
	flag.StringVar(&f.BodyTemplate, "body-template", "", "Handlebars template for the webhook request body")
	flag.StringVar(&f.IpVersion, "ip-version", "both", "IP versions to report: v4, v6, or both")
	flag.DurationVar(&f.PollInterval, "poll-interval", config.DefaultPollInterval, "Polling interval")
	flag.BoolVar(&f.PollOnly, "poll-only", false, "Disable the API listener and rely on polling only")
	flag.DurationVar(&f.Debounce, "debounce", config.DefaultDebounce, "Debounce window for bursts of change")
	flag.StringVar(&f.ExcludeRegex, "exclude-regex", "", "Regex of adapter names to exclude")
	flag.StringVar(&f.IncludeRegex, "include-regex", "", "Regex of adapter names to include")
	flag.BoolVar(&f.ExcludeLoop, "exclude-loopback", true, "Exclude loopback adapters")
	flag.BoolVar(&f.ExcludeVirt, "exclude-virtual", false, "Exclude virtual adapters")
	flag.StringVar(&f.StateFile, "state-file", "", "Optional path to persist the last known adapter snapshot")
	flag.BoolVar(&f.DryRun, "dry-run", false, "Log changes without sending webhooks")
	flag.BoolVar(&f.Verbose, "verbose", false, "Enable verbose (debug) logging")
	flag.StringVar(&f.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version information")

	flag.Parse()
	f.Headers = headers

	if *showVersion {
		fmt.Printf("ipwatchd version %s (commit: %s, built at: %s)\n",
			version.Version, version.CommitHash, version.BuildTime)
		os.Exit(0)
	}

	return f
}

type headerList []string

func (h *headerList) String() string { return strings.Join(*h, ",") }
func (h *headerList) Set(v string) error {
	*h = append(*h, v)
	return nil
}

// ParseHeader splits a Key:Value header flag value. It returns ok=false if
// the value has no colon separator.
func ParseHeader(raw string) (key, value string, ok bool) {
	idx := strings.IndexByte(raw, ':')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+1:]), true
}

// HeaderMap turns the repeated -header flags into an http.Header.
func (f *Flags) HeaderMap() http.Header {
	h := make(http.Header)
	for _, raw := range f.Headers {
		if key, value, ok := ParseHeader(raw); ok {
			h.Add(key, value)
		}
	}
	return h
}
