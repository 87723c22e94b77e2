package pipeline

import (
	"strconv"
	"strings"
	"time"

	"sursaud/internal"
	"sursaud/internal/util"
)

var dateLayouts = []string{
	internal.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
}

// ISOWeekToDate converts a "YYYY-SWW" label to the Monday of that ISO week.
// It returns nil for anything it cannot read, including week 53 of a year
// that only has 52.
func ISOWeekToDate(week string) *time.Time {
	parts := strings.Split(strings.TrimSpace(week), "-S")
	if len(parts) != 2 {
		return nil
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || year < 1 || year > 9999 {
		return nil
	}
	wk, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || wk < 1 || wk > 53 {
		return nil
	}

	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	sinceMonday := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, (wk-1)*7-sinceMonday)

	if y, w := monday.ISOWeek(); y != year || w != wk {
		return nil
	}
	return &monday
}

// ParseDate reads a calendar date cell leniently; the time of day is dropped.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// YearStart returns January 1st of the year held in value ("2021" or "2021.0").
func YearStart(value string) *time.Time {
	v, ok := util.ParseNumber(value)
	if !ok || v != float64(int(v)) || v < 1 || v > 9999 {
		return nil
	}
	d := time.Date(int(v), time.January, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(internal.DateLayout)
}
