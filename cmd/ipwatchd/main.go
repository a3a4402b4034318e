package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/ipwatchd/ipwatchd/internal/clock"
	"github.com/ipwatchd/ipwatchd/internal/config"
	"github.com/ipwatchd/ipwatchd/internal/monitor"
	"github.com/ipwatchd/ipwatchd/internal/network"
	"github.com/ipwatchd/ipwatchd/internal/network/platform"
	monitorplatform "github.com/ipwatchd/ipwatchd/internal/monitor/platform"
	ipwatchdruntime "github.com/ipwatchd/ipwatchd/internal/runtime"
	"github.com/ipwatchd/ipwatchd/internal/state"
	"github.com/ipwatchd/ipwatchd/internal/webhook"
	"github.com/ipwatchd/ipwatchd/pkg/cli"
)

func main() {
	flags := cli.ParseFlags()

	setLogLevel(flags.LogLevel, flags.Verbose)
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})

	cfg, cfgErr := config.FromFlags(config.FlagInput{
		URL: flags.URL, Method: flags.Method, Headers: flags.HeaderMap(),
		BodyTemplate: flags.BodyTemplate, IpVersion: flags.IpVersion,
		PollInterval: flags.PollInterval, PollOnly: flags.PollOnly, Debounce: flags.Debounce,
		ExcludeRegex: flags.ExcludeRegex, IncludeRegex: flags.IncludeRegex,
		ExcludeLoop: flags.ExcludeLoop, ExcludeVirt: flags.ExcludeVirt,
		StateFile: flags.StateFile, DryRun: flags.DryRun, Verbose: flags.Verbose,
	})
	if cfgErr != nil {
		log.WithError(cfgErr).Error("invalid configuration")
		printConfigHint(cfgErr)
		os.Exit(cfgErr.ExitCode())
	}

	log.Info(cfg.String())

	if runtime.GOOS != "linux" {
		log.Fatal("ipwatchd's concrete adapter fetcher and API listener are only implemented for linux")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher := network.NewFilteredFetcher(platform.NewLinuxFetcher(), cfg.Filter)

	var stateStore state.Store
	var initialBaseline []*network.AdapterSnapshot
	if cfg.StateFile != "" {
		if err := state.EnsureDir(cfg.StateFile); err != nil {
			log.WithError(err).Fatal("failed to prepare state file directory")
		}
		fileStore := state.NewFileStore(cfg.StateFile)
		stateStore = fileStore
		if result, err := fileStore.Load(); err != nil {
			log.WithError(err).Warn("failed to load persisted state, starting fresh")
		} else if result.Corrupted {
			log.WithField("reason", result.Reason).Warn("persisted state file corrupted, starting fresh")
		} else if result.Found {
			initialBaseline = result.Snapshots
			log.Info("restored adapter baseline from persisted state")
		}
	}

	var changeCh <-chan []network.IpChange
	if cfg.PollOnly {
		mon := monitor.NewPollingMonitor(fetcher, cfg.PollInterval).
			WithDebounce(monitor.DebouncePolicy{Window: cfg.Debounce}).
			WithClock(clock.SystemClock{})
		if initialBaseline != nil {
			mon = mon.WithInitialBaseline(initialBaseline)
		}
		changeCh = mon.Run(ctx)
	} else {
		listener := monitorplatform.NewLinuxApiListener()
		mon := monitor.NewHybridMonitor(fetcher, listener, cfg.PollInterval).
			WithDebounce(monitor.DebouncePolicy{Window: cfg.Debounce}).
			WithClock(clock.SystemClock{})
		if initialBaseline != nil {
			mon = mon.WithInitialBaseline(initialBaseline)
		}
		changeCh = mon.Run(ctx)
	}

	bus := monitor.NewChangeBus()

	var sender webhook.WebhookSender
	if !cfg.DryRun {
		httpWebhook := webhook.NewHttpWebhook(webhook.NewNetHttpClient(nil), cfg.URL)
		httpWebhook.Method = cfg.Method
		httpWebhook.Headers = cfg.Headers
		httpWebhook.BodyTemplate = cfg.BodyTemplate
		httpWebhook.Retry = cfg.Retry
		sender = httpWebhook
	}

	super := ipwatchdruntime.NewSupervisor()
	super.Add("pump", func(ctx context.Context) error {
		bus.Pump(changeCh)
		return nil
	}, nil)

	webhookCh, webhookUnsub := bus.Subscribe()
	super.Add("webhook-dispatch", func(ctx context.Context) error {
		return runWebhookLoop(ctx, webhookCh, sender, cfg.IpVersion, cfg.DryRun)
	}, func() error { webhookUnsub(); return nil })

	if stateStore != nil {
		stateCh, stateUnsub := bus.Subscribe()
		super.Add("state-persist", func(ctx context.Context) error {
			return runStatePersistLoop(ctx, stateCh, stateStore, fetcher)
		}, func() error { stateUnsub(); return nil })
	}

	if err := super.Start(ctx); err != nil {
		log.WithError(err).Error("supervisor start failed")
		os.Exit(config.ExitRuntimeError)
	}
	if err := super.Wait(ctx); err != nil {
		log.WithError(err).Error("supervisor wait failed")
		os.Exit(config.ExitRuntimeError)
	}
}

func runWebhookLoop(ctx context.Context, in <-chan []network.IpChange, sender webhook.WebhookSender, ipVersion string, dryRun bool) error {
	v := network.IpVersion(ipVersion)
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-in:
			if !ok {
				return nil
			}
			changes := network.FilterByVersion(batch, v)
			for _, c := range changes {
				sign := "+"
				if c.Kind == network.IpChangeRemoved {
					sign = "-"
				}
				log.WithFields(log.Fields{"adapter": c.Adapter, "address": c.Address.String()}).Infof("%s %s", sign, c.Address.String())
			}
			if dryRun || len(changes) == 0 || sender == nil {
				continue
			}
			if err := sender.Send(ctx, changes); err != nil {
				log.WithError(err).Error("webhook delivery failed")
			}
		}
	}
}

func runStatePersistLoop(ctx context.Context, in <-chan []network.IpChange, store state.Store, fetcher network.AddressFetcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-in:
			if !ok {
				return nil
			}
			snapshots, err := fetcher.Fetch()
			if err != nil {
				log.WithError(err).Warn("state persist: fetch failed, skipping save")
				continue
			}
			if err := store.Save(snapshots); err != nil {
				log.WithError(err).Warn("state persist: save failed")
			}
		}
	}
}

func printConfigHint(err *config.Error) {
	if err.Hint != "" {
		log.Infof("hint: %s", err.Hint)
	}
}

func setLogLevel(level string, verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}
	switch level {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
