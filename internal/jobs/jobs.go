// Package jobs turns config job declarations into scheduled work.
package jobs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"taskloop/internal/config"
	"taskloop/internal/cronwake"
	"taskloop/pkg/logx"
	"taskloop/pkg/sched"
)

// CommandTask runs an argv to completion. The per-run timeout is an
// app-level concern; the engine core stays timeout-free.
type CommandTask struct {
	Name    string
	Argv    []string
	Timeout time.Duration
	Log     logx.Logger
}

var _ sched.Task = (*CommandTask)(nil)

func (t *CommandTask) Run(ctx context.Context) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	started := time.Now()
	cmd := exec.CommandContext(ctx, t.Argv[0], t.Argv[1:]...)
	// CommandContext only kills the direct child; a forked grandchild can
	// keep the output pipes open and leave CombinedOutput waiting long past
	// the deadline. WaitDelay bounds that wait.
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("job %s: %w (output: %s)", t.Name, err, truncate(string(out), 512))
	}
	t.Log.Debug("job completed",
		logx.String("job", t.Name),
		logx.Duration("dur", time.Since(started)),
	)
	return nil
}

// Apply registers every config job: cron schedules go to the cron backend
// (which enqueues the job as immediate work on each firing), everything
// else is enqueued under its engine mode. Returns the IDs of directly
// enqueued jobs by name.
func Apply(defs []config.JobConfig, s *sched.Scheduler, cb *cronwake.Backend, log logx.Logger) (map[string]sched.ID, error) {
	ids := make(map[string]sched.ID, len(defs))
	for _, j := range defs {
		spec, err := config.ParseSchedule(j.Schedule)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		timeout, err := config.ParseDurationField("timeout", j.Timeout)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		task := &CommandTask{Name: j.Name, Argv: j.Command, Timeout: timeout, Log: log}

		if spec.Kind == config.SpecCron {
			name := j.Name
			err := cb.Add(name, spec.Cron, func() {
				s.Enqueue(task, sched.Now(), sched.Named(name))
			})
			if err != nil {
				return nil, fmt.Errorf("job %q: %w", j.Name, err)
			}
			log.Debug("cron job registered", logx.String("job", name), logx.String("spec", spec.Cron))
			continue
		}

		mode, err := spec.Mode()
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		ids[j.Name] = s.Enqueue(task, mode, sched.Named(j.Name))
		log.Debug("job enqueued", logx.String("job", j.Name), logx.String("mode", mode.String()))
	}
	return ids, nil
}

func truncate(s string, maxN int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxN {
		return s
	}
	return s[:maxN] + "..."
}
