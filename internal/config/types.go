package config

import (
	"fmt"
	"strings"
	"time"

	"taskloop/pkg/logx"
)

// Config is the daemon configuration. Files may be YAML or JSON; YAML is
// coerced to JSON before strict decoding, so unknown fields are rejected in
// both formats.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	History   HistoryConfig   `json:"history,omitempty"`
	Jobs      []JobConfig     `json:"jobs"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// Logx converts the logging section to the logx package's config.
func (c LoggingConfig) Logx() logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

// SchedulerConfig controls the engine's wakeup source.
//
// Tick is the interval of the self-triggering wakeup signal. Jobs with cron
// schedules are fired by the cron backend regardless of Tick.
type SchedulerConfig struct {
	Tick string `json:"tick,omitempty"`
}

// TickInterval returns the parsed tick, defaulting to one second.
func (c SchedulerConfig) TickInterval() (time.Duration, error) {
	return ParseDurationOrDefault("scheduler.tick", c.Tick, time.Second)
}

// HistoryConfig controls the SQLite run journal.
type HistoryConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path,omitempty"`
	MaxRecords int    `json:"max_records,omitempty"`
	MaxAge     string `json:"max_age,omitempty"`
}

// JobConfig declares one scheduled job: a named command run under a
// schedule (see ParseSchedule for the accepted forms).
type JobConfig struct {
	Name     string   `json:"name"`
	Schedule string   `json:"schedule"`
	Command  []string `json:"command"`
	Timeout  string   `json:"timeout,omitempty"`
}

// Validate checks the whole config; it is also the Watch validator, so a
// bad edit never replaces a good running config.
func (c *Config) Validate() error {
	if _, err := c.Scheduler.TickInterval(); err != nil {
		return err
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	if _, err := ParseDurationField("history.max_age", c.History.MaxAge); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Jobs))
	for i, j := range c.Jobs {
		name := strings.TrimSpace(j.Name)
		if name == "" {
			return fmt.Errorf("jobs[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("jobs[%d]: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
		if len(j.Command) == 0 {
			return fmt.Errorf("jobs[%d] %q: command is required", i, name)
		}
		if _, err := ParseSchedule(j.Schedule); err != nil {
			return fmt.Errorf("jobs[%d] %q: %w", i, name, err)
		}
		if _, err := ParseDurationField(fmt.Sprintf("jobs[%d].timeout", i), j.Timeout); err != nil {
			return err
		}
	}
	return nil
}
