package models

import (
	"time"

	dErrors "supervision/pkg/domain-errors"
)

// CheckinInterval is the cadence between an offender's check-ins. Only four
// fixed values exist; anything else is rejected at setup time.
type CheckinInterval string

const (
	IntervalWeekly     CheckinInterval = "WEEKLY"
	IntervalTwoWeeks   CheckinInterval = "TWO_WEEKS"
	IntervalFourWeeks  CheckinInterval = "FOUR_WEEKS"
	IntervalEightWeeks CheckinInterval = "EIGHT_WEEKS"
)

// intervalDurations orders the four intervals by strictly increasing duration.
var intervalDurations = []struct {
	interval CheckinInterval
	duration time.Duration
}{
	{IntervalWeekly, 7 * 24 * time.Hour},
	{IntervalTwoWeeks, 14 * 24 * time.Hour},
	{IntervalFourWeeks, 28 * 24 * time.Hour},
	{IntervalEightWeeks, 56 * 24 * time.Hour},
}

// Intervals returns the recognised intervals in increasing duration order.
func Intervals() []CheckinInterval {
	out := make([]CheckinInterval, 0, len(intervalDurations))
	for _, e := range intervalDurations {
		out = append(out, e.interval)
	}
	return out
}

// Duration returns the interval length. Unknown intervals return 0; callers
// validate with ParseInterval before trusting this.
func (i CheckinInterval) Duration() time.Duration {
	for _, e := range intervalDurations {
		if e.interval == i {
			return e.duration
		}
	}
	return 0
}

// ParseInterval validates an interval name.
func ParseInterval(s string) (CheckinInterval, error) {
	for _, e := range intervalDurations {
		if string(e.interval) == s {
			return e.interval, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unrecognised checkin interval %q", s)
}

// IntervalFromDuration recovers the interval identity from its duration.
// Round-trips with Duration for all four recognised intervals.
func IntervalFromDuration(d time.Duration) (CheckinInterval, error) {
	for _, e := range intervalDurations {
		if e.duration == d {
			return e.interval, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "no checkin interval of duration %s", d)
}
