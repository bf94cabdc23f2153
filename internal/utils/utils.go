package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	timeRx = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

	ErrBadTime = errors.New("time must be HH:MM")
	ErrBadDate = errors.New("date must be YYYY-MM-DD, today or yesterday")
)

// ParseHM parses a 24h "HH:MM" clock reading.
func ParseHM(s string) (hour, minute int, err error) {
	m := timeRx.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, ErrBadTime
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, ErrBadTime
	}
	return hour, minute, nil
}

// ParseDay resolves "today", "yesterday" or YYYY-MM-DD to midnight in loc.
func ParseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return d, nil
}

// CombineDateTime joins a picked day and a picked clock time into a UTC instant.
func CombineDateTime(day time.Time, hm string) (time.Time, error) {
	h, m, err := ParseHM(hm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()).UTC(), nil
}

// ParseStart accepts "now", "YYYY-MM-DD HH:MM" or RFC3339.
func ParseStart(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "now") {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("unrecognized start %q: use now, \"YYYY-MM-DD HH:MM\" or RFC3339", s)
	}
	day, err := ParseDay(parts[0], now, loc)
	if err != nil {
		return time.Time{}, err
	}
	return CombineDateTime(day, parts[1])
}
