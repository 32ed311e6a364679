// Package analysis derives performance-management metrics from the stored
// training-load history.
package analysis

import (
	"math"
	"time"

	"velo/internal/state"
)

// Point is one day of the performance management chart.
type Point struct {
	Date    time.Time
	Load    float64 // summed TSS for the day
	Fitness float64 // CTL, 42-day EMA
	Fatigue float64 // ATL, 7-day EMA
	Form    float64 // TSB = CTL - ATL
}

// EMA decay constants. 2/(N+1) for an N-day time constant.
const (
	ctlDecay = 2.0 / (42.0 + 1.0)
	atlDecay = 2.0 / (7.0 + 1.0)
)

const dayFormat = "2006-01-02"

// ComputePMC converts an unordered, possibly sparse load history into a
// continuous daily Fitness/Fatigue/Form series from the earliest load date
// through today inclusive, with missing days filled at zero load.
//
// The scan is a strict left-to-right recursion: each day's averages depend
// on every prior day, so dates must be processed in ascending order.
// Both averages seed at zero, so a first-day load moves them partway
// toward the load value rather than all the way.
// Output values are rounded to one decimal; the recursive
// state itself is never rounded, since compounding rounding error would
// corrupt long histories.
func ComputePMC(loads []state.DailyLoad, today time.Time) []Point {
	if len(loads) == 0 {
		return nil
	}

	// Sum same-date loads; multiple entries per day are additive.
	byDay := make(map[string]float64, len(loads))
	var earliest time.Time
	for _, l := range loads {
		d, err := time.Parse(dayFormat, l.Date)
		if err != nil {
			continue
		}
		byDay[l.Date] += l.TSS
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	if earliest.IsZero() {
		return nil
	}

	end, err := time.Parse(dayFormat, today.Format(dayFormat))
	if err != nil {
		return nil
	}

	var points []Point
	var ctl, atl float64
	for d := earliest; !d.After(end); d = d.AddDate(0, 0, 1) {
		load := byDay[d.Format(dayFormat)] // 0 when no activity

		ctl += (load - ctl) * ctlDecay
		atl += (load - atl) * atlDecay

		points = append(points, Point{
			Date:    d,
			Load:    load,
			Fitness: round1(ctl),
			Fatigue: round1(atl),
			Form:    round1(ctl - atl),
		})
	}

	return points
}

// Current returns the most recent point of the series, or false when the
// history is empty.
func Current(loads []state.DailyLoad, today time.Time) (Point, bool) {
	points := ComputePMC(loads, today)
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}

// FormDescription returns a human-readable reading of a TSB value.
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
