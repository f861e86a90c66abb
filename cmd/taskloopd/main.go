package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdnotify "github.com/coreos/go-systemd/v22/daemon"

	"taskloop/internal/config"
	"taskloop/internal/cronwake"
	"taskloop/internal/eventbus"
	"taskloop/internal/history"
	"taskloop/internal/jobs"
	"taskloop/pkg/logx"
	"taskloop/pkg/sched"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./taskloop.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	logSvc, log := logx.New(cfg.Logging.Logx())
	defer logSvc.Close()
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	tick, err := cfg.Scheduler.TickInterval()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	bus := eventbus.New()
	scheduler := sched.New(
		sched.WithSignal(sched.NewTickingSignal(tick)),
		sched.WithLogger(log.With(logx.String("comp", "sched"))),
		sched.WithObserver(publishRuns(bus)),
	)

	if cfg.History.Enabled {
		maxAge, _ := config.ParseDurationField("history.max_age", cfg.History.MaxAge)
		store, err := history.Open(history.Config{
			Path:       cfg.History.Path,
			MaxRecords: cfg.History.MaxRecords,
			MaxAge:     maxAge,
		}, log.With(logx.String("comp", "history")))
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
		defer store.Close()

		svc := history.NewService(store, bus, log.With(logx.String("comp", "history")))
		svc.Start(ctx)
		defer svc.Stop()
	}

	cronBackend := cronwake.New(log.With(logx.String("comp", "cron")))
	if _, err := jobs.Apply(cfg.Jobs, scheduler, cronBackend, log.With(logx.String("comp", "jobs"))); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	cronBackend.Register(scheduler.Executor())
	defer cronBackend.Unregister()

	scheduler.Resume()
	defer scheduler.Close()

	// Hot reload: logging changes apply live; job set changes need a restart
	// (there is no job diffing here, and stale periodic entries would linger).
	sub := mgr.Subscribe(1)
	go func() {
		for c := range sub {
			logSvc.Apply(c.Logging.Logx())
			log.Info("config reloaded; logging applied (job changes require restart)")
		}
	}()
	go func() {
		if err := mgr.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Warn("config watch ended", logx.Err(err))
		}
	}()

	_, _ = sdnotify.SdNotify(false, sdnotify.SdNotifyReady)
	log.Info("taskloopd started",
		logx.String("config", cfgPath),
		logx.Duration("tick", tick),
		logx.Int("jobs", len(cfg.Jobs)),
	)

	<-ctx.Done()
	_, _ = sdnotify.SdNotify(false, sdnotify.SdNotifyStopping)
	log.Info("shutting down")
}

// publishRuns bridges the engine's observer hook onto the event bus.
func publishRuns(bus *eventbus.Bus) sched.Observer {
	return sched.ObserverFunc(func(r sched.RunReport) {
		ev := eventbus.RunEvent{
			ID:       string(r.ID),
			Name:     r.Name,
			Mode:     r.Mode.String(),
			Started:  r.Started,
			Duration: r.Duration,
		}
		if r.Err != nil {
			ev.Error = r.Err.Error()
		}
		bus.Publish(ev)
	})
}
