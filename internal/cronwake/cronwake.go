// Package cronwake is an external trigger source for the scheduling engine,
// driven by cron expressions.
//
// Each registered spec, when it fires, runs an optional prepare hook (the
// daemon uses it to enqueue the job as immediate work) and then calls
// JustNext on the executor handle. The backend touches nothing else on the
// executor, per the Backend contract.
package cronwake

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"taskloop/pkg/logx"
	"taskloop/pkg/sched"
)

// Backend implements sched.Backend on top of robfig/cron.
type Backend struct {
	parser cron.Parser
	log    logx.Logger

	mu   sync.Mutex
	c    *cron.Cron
	h    sched.Handle
	defs []def
}

type def struct {
	name string
	spec string
	prep func()
}

var _ sched.Backend = (*Backend)(nil)

func New(log logx.Logger) *Backend {
	return &Backend{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		log:    log,
	}
}

// Add registers a cron spec. prep runs right before the executor handle is
// fired; it may be nil. Adding while registered takes effect immediately,
// otherwise the definition is kept and applied on Register.
func (b *Backend) Add(name, spec string, prep func()) error {
	if _, err := b.parser.Parse(spec); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d := def{name: name, spec: spec, prep: prep}
	b.defs = append(b.defs, d)
	if b.c != nil {
		b.addLocked(d)
	}
	return nil
}

// Register implements sched.Backend: it starts the cron runner targeting h.
func (b *Backend) Register(h sched.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.c != nil {
		return
	}
	b.h = h
	b.c = cron.New(cron.WithParser(b.parser))
	for _, d := range b.defs {
		b.addLocked(d)
	}
	b.c.Start()
	b.log.Debug("cron backend registered", logx.Int("specs", len(b.defs)))
}

// Unregister stops the cron runner after in-flight firings complete.
// Definitions are kept for a later Register.
func (b *Backend) Unregister() {
	b.mu.Lock()
	c := b.c
	b.c = nil
	b.h = nil
	b.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		b.log.Debug("cron backend unregistered")
	}
}

func (b *Backend) addLocked(d def) {
	_, err := b.c.AddFunc(d.spec, func() {
		if d.prep != nil {
			d.prep()
		}
		b.mu.Lock()
		h := b.h
		b.mu.Unlock()
		if h == nil {
			return
		}
		if _, err := h.JustNext(context.Background()); err != nil {
			b.log.Warn("cron-fired run failed", logx.String("job", d.name), logx.Err(err))
		}
	})
	if err != nil {
		// Specs are validated in Add; this only fires if the runner's parser
		// disagrees, which would be a bug worth surfacing loudly.
		b.log.Error("cron spec rejected at start", logx.String("job", d.name), logx.String("spec", d.spec), logx.Err(err))
	}
}
