package utils

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	// Embedded zone database so the reference zone resolves in minimal images.
	_ "time/tzdata"
)

// ReferenceTimeZone is the zone every stored opening hour is local to.
// All locations are currently in New York; hours carry no zone of their own.
const ReferenceTimeZone = "America/New_York"

var (
	referenceLocation     *time.Location
	referenceLocationErr  error
	referenceLocationOnce sync.Once

	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

var weekdayNumbers = map[string]int{
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
	"sunday":    7,
}

// ReferenceLocation returns the loaded ReferenceTimeZone.
func ReferenceLocation() *time.Location {
	referenceLocationOnce.Do(func() {
		referenceLocation, referenceLocationErr = time.LoadLocation(ReferenceTimeZone)
	})
	if referenceLocationErr != nil {
		// tzdata is embedded, so this only happens with a corrupt build.
		panic(fmt.Sprintf("loading %s: %v", ReferenceTimeZone, referenceLocationErr))
	}
	return referenceLocation
}

// InReferenceZone converts t to the reference time zone.
func InReferenceZone(t time.Time) time.Time {
	return t.In(ReferenceLocation())
}

// zonelessLayouts are the ISO 8601 forms accepted without a UTC offset.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDateTime parses an ISO 8601 date-time. Values without an offset are
// wall clock time in the reference zone.
func ParseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, value, ReferenceLocation()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO 8601 date-time", value)
}

// WeekdayNumber returns the ISO weekday of t in its own location:
// 1 for Monday through 7 for Sunday.
func WeekdayNumber(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ParseWeekday maps a weekday name ("Monday", "sunday") to 1..7.
func ParseWeekday(name string) (int, error) {
	n, ok := weekdayNumbers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%q is not a valid weekday", name)
	}
	return n, nil
}

// WeekdayName is the inverse of ParseWeekday.
func WeekdayName(n int) string {
	for name, num := range weekdayNumbers {
		if num == n {
			return strings.ToUpper(name[:1]) + name[1:]
		}
	}
	return ""
}

// FormatTimeOfDay renders the wall clock of t as HH:MM:SS, the format Postgres
// compares TIME columns against.
func FormatTimeOfDay(t time.Time) string {
	return t.Format("15:04:05")
}

// NormalizeClock validates an HH:MM or HH:MM:SS value and returns HH:MM:SS.
func NormalizeClock(value string) (string, error) {
	if !clockPattern.MatchString(value) {
		return "", fmt.Errorf("%q is not a valid HH:MM time", value)
	}
	layout := "15:04"
	if len(value) == len("15:04:05") {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid HH:MM time", value)
	}
	return FormatTimeOfDay(parsed), nil
}
