package schedule

import (
	"testing"
	"time"
)

func TestParseVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		raw    string
		kind   Kind
		source string
		every  time.Duration
	}{
		{name: "empty uses default", raw: "", kind: KindInterval, source: "duration", every: 10 * time.Minute},
		{name: "duration", raw: "10m", kind: KindInterval, source: "duration", every: 10 * time.Minute},
		{name: "prefixed interval", raw: "interval:45s", kind: KindInterval, source: "duration", every: 45 * time.Second},
		{name: "every prefix", raw: "every:01:30", kind: KindInterval, source: "hhmm", every: 90 * time.Minute},
		{name: "hhmm", raw: "00:10", kind: KindInterval, source: "hhmm", every: 10 * time.Minute},
		{name: "cron", raw: "*/10 * * * *", kind: KindCron, source: "cron"},
		{name: "descriptor", raw: "@every 10m", kind: KindCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:@hourly", kind: KindCron, source: "cron"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == KindInterval && got.Every != tt.every {
				t.Fatalf("Every = %v, want %v", got.Every, tt.every)
			}
			if got.Schedule == nil {
				t.Fatal("Schedule is nil")
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"not-a-schedule", "-5m", "0s", "00:75", "cron:", "cron:61 * * * *"} {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("Parse(%q): expected error", raw)
		}
	}
}

func TestNext(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 5, 1, 12, 3, 20, 0, time.UTC)

	iv, err := Parse("10m")
	if err != nil {
		t.Fatal(err)
	}
	if got := iv.Next(base); !got.Equal(base.Add(10 * time.Minute)) {
		t.Fatalf("interval Next = %v", got)
	}

	cr, err := Parse("*/10 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 5, 1, 12, 10, 0, 0, time.UTC)
	if got := cr.Next(base); !got.Equal(want) {
		t.Fatalf("cron Next = %v, want %v", got, want)
	}
}
