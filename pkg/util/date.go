package util

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// ISOLayout is the "iso" form the engineering database accepts for start/end.
	ISOLayout = "2006-01-02 15:04:05.000000"
	// ISOTLayout is the "isot" form used in record descriptions.
	ISOTLayout = "2006-01-02T15:04:05.000"

	secondsPerDay = 86400
)

// mjdEpoch is MJD 0, 1858-11-17T00:00:00 UTC.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// MJDToTime converts a Modified Julian Date to a UTC time, rounded to the microsecond.
func MJDToTime(mjd float64) time.Time {
	days := math.Floor(mjd)
	frac := mjd - days
	t := mjdEpoch.AddDate(0, 0, int(days))
	return t.Add(time.Duration(math.Round(frac*secondsPerDay*1e6)) * time.Microsecond)
}

// TimeToMJD converts t to a Modified Julian Date.
func TimeToMJD(t time.Time) float64 {
	return t.UTC().Sub(mjdEpoch).Seconds() / secondsPerDay
}

// ISO formats t the way the timeseries service expects, in UTC.
func ISO(t time.Time) string { return t.UTC().Format(ISOLayout) }

// ISOT formats t in the ISO-8601 "T" form with millisecond precision, in UTC.
func ISOT(t time.Time) string { return t.UTC().Format(ISOTLayout) }

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	ISOLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime tries RFC3339, the iso/isot forms, a bare date, "mjd:<value>" and
// unix seconds. Times without a zone are read as UTC. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if v, ok := strings.CutPrefix(strings.ToLower(s), "mjd:"); ok {
		if mjd, err := strconv.ParseFloat(v, 64); err == nil {
			return MJDToTime(mjd), true
		}
		return time.Time{}, false
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}
