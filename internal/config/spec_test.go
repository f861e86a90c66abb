package config

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		kind    SpecKind
		cron    string
		dur     time.Duration
		source  string
		wantErr bool
	}{
		{in: "now", kind: SpecNow, source: "now"},
		{in: "  NOW  ", kind: SpecNow, source: "now"},

		{in: "after:10m", kind: SpecAfter, dur: 10 * time.Minute, source: "duration"},
		{in: "in:90s", kind: SpecAfter, dur: 90 * time.Second, source: "duration"},
		{in: "after:02:30", kind: SpecAfter, dur: 2*time.Hour + 30*time.Minute, source: "hhmm"},

		{in: "every:55m", kind: SpecEvery, dur: 55 * time.Minute, source: "duration"},
		{in: "55m", kind: SpecEvery, dur: 55 * time.Minute, source: "duration"},
		{in: "2h30m", kind: SpecEvery, dur: 2*time.Hour + 30*time.Minute, source: "duration"},
		{in: "00:50", kind: SpecEvery, dur: 50 * time.Minute, source: "hhmm"},
		{in: "02:30", kind: SpecEvery, dur: 2*time.Hour + 30*time.Minute, source: "hhmm"},

		{in: "*/5 * * * *", kind: SpecCron, cron: "*/5 * * * *", source: "cron"},
		{in: "@hourly", kind: SpecCron, cron: "@hourly", source: "cron"},
		{in: "@every 55m", kind: SpecCron, cron: "@every 55m", source: "cron"},
		{in: "cron:0 0 * * *", kind: SpecCron, cron: "0 0 * * *", source: "cron"},

		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "cron:", wantErr: true},
		{in: "after:", wantErr: true},
		{in: "after:nope", wantErr: true},
		{in: "00:75", wantErr: true}, // minutes out of range
		{in: "0s", wantErr: true},    // interval must be positive
		{in: "-5m", wantErr: true},
		{in: "banana", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseSchedule(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSchedule(%q): expected error, got %+v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSchedule(%q): %v", tc.in, err)
			continue
		}
		if got.Kind != tc.kind || got.Cron != tc.cron || got.Duration != tc.dur || got.Source != tc.source {
			t.Errorf("ParseSchedule(%q) = %+v, want kind=%v cron=%q dur=%v source=%q",
				tc.in, got, tc.kind, tc.cron, tc.dur, tc.source)
		}
	}
}

func TestParsedSpecMode(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"now", "after:5m", "every:10m"} {
		p, err := ParseSchedule(in)
		if err != nil {
			t.Fatalf("ParseSchedule(%q): %v", in, err)
		}
		if _, err := p.Mode(); err != nil {
			t.Errorf("Mode() for %q: %v", in, err)
		}
	}

	p, err := ParseSchedule("@hourly")
	if err != nil {
		t.Fatalf("ParseSchedule(@hourly): %v", err)
	}
	if _, err := p.Mode(); err == nil {
		t.Error("cron spec produced a queue mode")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty field: d=%v err=%v", d, err)
	}
	if d, err := ParseDurationField("x", "1m30s"); err != nil || d != 90*time.Second {
		t.Fatalf("valid field: d=%v err=%v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("negative duration accepted")
	}
	if _, err := ParseDurationField("x", "soon"); err == nil {
		t.Fatal("garbage duration accepted")
	}
	if d, err := ParseDurationOrDefault("x", "", time.Second); err != nil || d != time.Second {
		t.Fatalf("default not applied: d=%v err=%v", d, err)
	}
}
