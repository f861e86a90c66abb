package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"taskloop/pkg/sched"
)

// SpecKind describes the normalized kind of a schedule string.
type SpecKind int

const (
	SpecNow SpecKind = iota
	SpecAfter
	SpecEvery
	SpecCron
)

// ParsedSpec represents a parsed schedule string.
//
// Supported forms:
//   - "now": run once on the next drain cycle
//   - One-shot delay: "after:10m" or "in:10m"
//   - Interval duration: "55m", "2h30m", or explicit "every:55m"
//   - Interval HH:MM: "00:50" (50 minutes), "02:30" (2 hours 30 minutes)
//   - Cron (robfig/cron): "*/5 * * * *", "@hourly", "@every 55m", or
//     explicit "cron:0 0 * * *"
type ParsedSpec struct {
	Kind     SpecKind
	Cron     string
	Duration time.Duration // delay (SpecAfter) or interval (SpecEvery)
	Source   string        // "now" | "cron" | "duration" | "hhmm"
}

// Mode converts the spec to an engine schedule mode. Cron specs have no
// mode: the cron backend enqueues an immediate entry on each firing.
func (p ParsedSpec) Mode() (sched.Mode, error) {
	switch p.Kind {
	case SpecNow:
		return sched.Now(), nil
	case SpecAfter:
		return sched.After(p.Duration), nil
	case SpecEvery:
		return sched.Every(p.Duration), nil
	default:
		return sched.Mode{}, fmt.Errorf("cron schedule has no queue mode")
	}
}

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// ParseSchedule parses a schedule string into one of the engine's modes or
// a cron expression.
func ParseSchedule(raw string) (ParsedSpec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedSpec{}, fmt.Errorf("schedule required")
	}

	low := strings.ToLower(s)
	if low == "now" {
		return ParsedSpec{Kind: SpecNow, Source: "now"}, nil
	}

	// Prefixes (explicit)
	for _, pre := range []string{"after:", "in:"} {
		if strings.HasPrefix(low, pre) {
			d, src, err := parseInterval(s[len(pre):])
			if err != nil {
				return ParsedSpec{}, err
			}
			return ParsedSpec{Kind: SpecAfter, Duration: d, Source: src}, nil
		}
	}
	if strings.HasPrefix(low, "every:") {
		d, src, err := parseInterval(s[len("every:"):])
		if err != nil {
			return ParsedSpec{}, err
		}
		return ParsedSpec{Kind: SpecEvery, Duration: d, Source: src}, nil
	}
	if strings.HasPrefix(low, "cron:") {
		expr := strings.TrimSpace(s[len("cron:"):])
		if expr == "" {
			return ParsedSpec{}, fmt.Errorf("cron schedule required after 'cron:'")
		}
		return ParsedSpec{Kind: SpecCron, Cron: expr, Source: "cron"}, nil
	}

	// Heuristics: any whitespace or leading '@' means cron.
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return ParsedSpec{Kind: SpecCron, Cron: s, Source: "cron"}, nil
	}

	// HH:MM or a bare Go duration means a recurring interval.
	if reHHMM.MatchString(s) {
		d, src, err := parseInterval(s)
		if err != nil {
			return ParsedSpec{}, err
		}
		return ParsedSpec{Kind: SpecEvery, Duration: d, Source: src}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return ParsedSpec{}, fmt.Errorf("interval must be > 0")
		}
		return ParsedSpec{Kind: SpecEvery, Duration: d, Source: "duration"}, nil
	}

	return ParsedSpec{}, fmt.Errorf(
		"invalid schedule %q (use 'now', 'after:10m', a duration like '55m', HH:MM like '02:30', or cron like '*/5 * * * *')",
		raw,
	)
}

func parseInterval(v string) (time.Duration, string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, "", fmt.Errorf("interval required")
	}
	if m := reHHMM.FindStringSubmatch(v); len(m) == 3 {
		var hh int
		for i := 0; i < len(m[1]); i++ {
			hh = hh*10 + int(m[1][i]-'0')
		}
		mm := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
		if mm > 59 {
			return 0, "", fmt.Errorf("invalid minutes in %q", v)
		}
		d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		if d <= 0 {
			return 0, "", fmt.Errorf("interval must be > 0")
		}
		return d, "hhmm", nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, "", fmt.Errorf("invalid interval %q (use HH:MM or Go duration like '55m'/'2h30m')", v)
	}
	if d <= 0 {
		return 0, "", fmt.Errorf("interval must be > 0")
	}
	return d, "duration", nil
}
