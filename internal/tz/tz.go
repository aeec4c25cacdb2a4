// Package tz normalizes timestamps to Europe/Paris civil time.
package tz

import (
	"fmt"
	"strings"
	"time"

	// Embedded zoneinfo so Europe/Paris resolves on minimal images.
	_ "time/tzdata"
)

// Paris is the zone every comparison and formatted hour is expressed in.
var Paris = mustLoad("Europe/Paris")

// OutwardLayout is the instant format the proposals endpoint expects.
const OutwardLayout = "2006-01-02T15:04:05.000-07:00"

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04-07:00",
}

var civilLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("loading location %s: %v", name, err))
	}
	return loc
}

// Parse reads a timestamp and returns it in Paris. Values carrying an offset
// are treated as instants; values without one are read as Paris wall-clock time.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(Paris), nil
		}
	}
	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, value, Paris); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// In converts t to Paris.
func In(t time.Time) time.Time {
	return t.In(Paris)
}

// HourMinute formats t as Paris "HH:mm".
func HourMinute(t time.Time) string {
	return t.In(Paris).Format("15:04")
}

// Outward formats t the way the proposals endpoint expects its outward date.
func Outward(t time.Time) string {
	return t.In(Paris).Format(OutwardLayout)
}
