package progress

import (
	"math"
	"testing"
	"time"

	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/zones"
)

var start = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func TestComputeAtStart(t *testing.T) {
	for _, z := range zones.List() {
		p := Compute(z, start, start)
		if p.ProgressPercent != 0 || p.IsCompleted {
			t.Errorf("%s at start: %v%% completed=%v", z.Name, p.ProgressPercent, p.IsCompleted)
		}
		if p.State() != models.ZonePending {
			t.Errorf("%s state = %s", z.Name, p.State())
		}
	}
}

func TestComputeAtThreshold(t *testing.T) {
	for _, z := range zones.List() {
		p := Compute(z, start, start.Add(z.Duration()))
		if !p.IsCompleted || p.ProgressPercent != 100 {
			t.Errorf("%s at threshold: %v%% completed=%v", z.Name, p.ProgressPercent, p.IsCompleted)
		}
		if !p.TargetTime.Equal(start.Add(z.Duration())) {
			t.Errorf("%s target = %v", z.Name, p.TargetTime)
		}
	}
}

func TestComputeNowBeforeStart(t *testing.T) {
	for _, z := range zones.List() {
		for _, back := range []time.Duration{time.Millisecond, time.Hour, 100 * time.Hour} {
			p := Compute(z, start, start.Add(-back))
			if p.IsCompleted {
				t.Errorf("%s completed with now %v before start", z.Name, back)
			}
			if p.ProgressPercent != 0 {
				t.Errorf("%s progress = %v, want 0", z.Name, p.ProgressPercent)
			}
		}
	}
}

func TestComputeMonotonic(t *testing.T) {
	for _, z := range zones.List() {
		prev := -1.0
		for m := 0; m <= int(z.ThresholdHours*60)+120; m += 7 {
			p := Compute(z, start, start.Add(time.Duration(m)*time.Minute))
			if p.ProgressPercent < prev {
				t.Fatalf("%s: progress decreased at %dm: %v < %v", z.Name, m, p.ProgressPercent, prev)
			}
			if p.ProgressPercent > 100 {
				t.Fatalf("%s: progress above 100", z.Name)
			}
			prev = p.ProgressPercent
		}
		if prev != 100 {
			t.Fatalf("%s: did not saturate, last = %v", z.Name, prev)
		}
	}
}

func TestComputeZeroDurationIsCompleted(t *testing.T) {
	p := Compute(models.ZoneDefinition{Name: "broken"}, start, start)
	if !p.IsCompleted || p.ProgressPercent != 100 {
		t.Fatalf("got %+v", p)
	}
}

func TestScenarioFourHoursIn(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	anabolic, _ := zones.ByName("Anabolic")
	catabolic, _ := zones.ByName("Catabolic")

	a := Compute(anabolic, start, now)
	if !a.IsCompleted || a.ProgressPercent != 100 {
		t.Fatalf("Anabolic = %+v", a)
	}
	c := Compute(catabolic, start, now)
	if c.IsCompleted {
		t.Fatalf("Catabolic completed early")
	}
	if math.Abs(c.ProgressPercent-33.33) > 0.01 {
		t.Fatalf("Catabolic progress = %v", c.ProgressPercent)
	}
	if got := FormatRemaining(c.Remaining); got != "8h 0m" {
		t.Fatalf("Catabolic remaining = %q", got)
	}

	ps := ComputeAll(zones.List(), start, now)
	cur, ok := Current(ps)
	if !ok || cur.Zone.Name != "Anabolic" {
		t.Fatalf("Current = %v, %v", cur.Zone.Name, ok)
	}
	next, ok := Next(ps)
	if !ok || next.Zone.Name != "Catabolic" {
		t.Fatalf("Next = %v, %v", next.Zone.Name, ok)
	}
}

func TestCurrentAndNextEmpty(t *testing.T) {
	ps := ComputeAll(zones.List(), start, start)
	if _, ok := Current(ps); ok {
		t.Fatalf("no zone should be current at start")
	}
	ps = ComputeAll(zones.List(), start, start.Add(100*time.Hour))
	if _, ok := Next(ps); ok {
		t.Fatalf("no zone should be pending after 100h")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Minute, "45m"},
		{45*time.Minute + 59*time.Second, "45m"},
		{8 * time.Hour, "8h 0m"},
		{25*time.Hour + 3*time.Minute, "25h 3m"},
		{30 * time.Second, "0m"},
		{0, "0m"},
		{-time.Hour, "0m"},
	}
	for _, c := range cases {
		if got := FormatRemaining(c.d); got != c.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestFormatTarget(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		target time.Time
		want   string
	}{
		{time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), "Today 20:00"},
		{time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), "Tomorrow 08:00"},
		{time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC), "Thu, Jan 4 08:00"},
	}
	for _, c := range cases {
		if got := FormatTarget(c.target, now, time.UTC); got != c.want {
			t.Errorf("FormatTarget(%v) = %q, want %q", c.target, got, c.want)
		}
	}

	// 23:30 UTC on Jan 1 is already Jan 2 in Moscow, so "Today" there.
	msk := time.FixedZone("MSK", 3*3600)
	late := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	if got := FormatTarget(late, late.Add(-time.Hour), msk); got != "Today 02:30" {
		t.Errorf("FormatTarget in MSK = %q", got)
	}
}

func TestFormatSinceAndElapsed(t *testing.T) {
	now := start.Add(4*time.Hour + 30*time.Minute)
	if got := FormatSince(start, time.UTC); got != "fasting since Mon, Jan 1 08:00" {
		t.Errorf("FormatSince = %q", got)
	}
	if got := FormatElapsed(start, now); got != "elapsed 4h 30m" {
		t.Errorf("FormatElapsed = %q", got)
	}
}
