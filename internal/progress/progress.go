// Package progress derives per-zone countdowns from a fast's start time and the
// current time. Everything here is a pure function of its arguments.
package progress

import (
	"fmt"
	"time"

	"telegram-fasting-tracker/internal/models"
)

// Compute reports how far a fast started at start has advanced toward zone at now.
// A now before start yields zero progress rather than an error.
func Compute(zone models.ZoneDefinition, start, now time.Time) models.ZoneProgress {
	d := zone.Duration()
	target := start.Add(d)
	p := models.ZoneProgress{
		Zone:       zone,
		TargetTime: target,
		Elapsed:    now.Sub(start),
		Remaining:  target.Sub(now),
	}
	if d <= 0 {
		p.IsCompleted = true
		p.ProgressPercent = 100
		return p
	}
	p.IsCompleted = p.Remaining <= 0
	p.ProgressPercent = clamp(float64(p.Elapsed)/float64(d)*100, 0, 100)
	return p
}

// ComputeAll evaluates every zone in order.
func ComputeAll(zs []models.ZoneDefinition, start, now time.Time) []models.ZoneProgress {
	out := make([]models.ZoneProgress, 0, len(zs))
	for _, z := range zs {
		out = append(out, Compute(z, start, now))
	}
	return out
}

// Current returns the highest completed zone.
func Current(ps []models.ZoneProgress) (models.ZoneProgress, bool) {
	for i := len(ps) - 1; i >= 0; i-- {
		if ps[i].IsCompleted {
			return ps[i], true
		}
	}
	return models.ZoneProgress{}, false
}

// Next returns the first zone still pending.
func Next(ps []models.ZoneProgress) (models.ZoneProgress, bool) {
	for _, p := range ps {
		if !p.IsCompleted {
			return p, true
		}
	}
	return models.ZoneProgress{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ---------- formatting ------------------------------------------------------

// FormatRemaining floors d to whole minutes: "45m", "8h 0m".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	mins := int64(d / time.Minute)
	h, m := mins/60, mins%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatElapsed renders "elapsed Xh Ym".
func FormatElapsed(start, now time.Time) string {
	return "elapsed " + FormatRemaining(now.Sub(start))
}

// FormatSince renders "fasting since Mon, Jan 2 15:04" in loc.
func FormatSince(start time.Time, loc *time.Location) string {
	return "fasting since " + start.In(loc).Format("Mon, Jan 2 15:04")
}

// FormatTarget labels target relative to the calendar day of now in loc.
func FormatTarget(target, now time.Time, loc *time.Location) string {
	t := target.In(loc)
	n := now.In(loc)
	switch {
	case sameDay(t, n):
		return "Today " + t.Format("15:04")
	case sameDay(t, n.AddDate(0, 0, 1)):
		return "Tomorrow " + t.Format("15:04")
	default:
		return t.Format("Mon, Jan 2 15:04")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
