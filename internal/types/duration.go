package types

import (
	"time"

	"github.com/kabuquant/kabuquant/pkg/errors"
)

// Duration is the candle bucket granularity.
type Duration string

const (
	Duration5s Duration = "5s"
	Duration1m Duration = "1m"
	Duration1h Duration = "1h"
	Duration1d Duration = "1d"
)

// Durations lists every granularity maintained by the live ingestion path,
// ordered from finest to coarsest.
var Durations = []Duration{Duration5s, Duration1m, Duration1h}

// ParseDuration converts a string into a Duration.
func ParseDuration(s string) (Duration, error) {
	switch Duration(s) {
	case Duration5s, Duration1m, Duration1h, Duration1d:
		return Duration(s), nil
	default:
		return "", errors.NewUnknownDurationError(s)
	}
}

// Interval returns the width of one bucket.
func (d Duration) Interval() (time.Duration, error) {
	switch d {
	case Duration5s:
		return 5 * time.Second, nil
	case Duration1m:
		return time.Minute, nil
	case Duration1h:
		return time.Hour, nil
	case Duration1d:
		return 24 * time.Hour, nil
	default:
		return 0, errors.NewUnknownDurationError(string(d))
	}
}

// Truncate maps a timestamp to the start of its containing bucket.
// 5s buckets floor seconds to the nearest lower multiple of 5, 1m buckets
// truncate to the minute, 1h buckets truncate to the hour.
func (d Duration) Truncate(t time.Time) (time.Time, error) {
	interval, err := d.Interval()
	if err != nil {
		return time.Time{}, err
	}

	return t.Truncate(interval), nil
}
