package matching

import (
	"fmt"
	"math"
)

// OverlapWindow is the intersection of two slots on the same day.
type OverlapWindow struct {
	Day       Weekday `json:"day"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
}

// Hours is the length of the window.
func (w OverlapWindow) Hours() int {
	return w.EndHour - w.StartHour
}

func (w OverlapWindow) String() string {
	return fmt.Sprintf("%s %02d:00-%02d:00", w.Day, w.StartHour, w.EndHour)
}

// OverlapSlots returns one window per same-day pair of slots whose
// intersection is non-empty.
func OverlapSlots(a, b []TimeSlot) []OverlapWindow {
	var windows []OverlapWindow
	for _, x := range a {
		for _, y := range b {
			if x.Day != y.Day {
				continue
			}
			start := max(x.StartHour, y.StartHour)
			end := min(x.EndHour, y.EndHour)
			if start < end {
				windows = append(windows, OverlapWindow{Day: x.Day, StartHour: start, EndHour: end})
			}
		}
	}
	return windows
}

type timeMatchKind int

const (
	noTimeMatch timeMatchKind = iota
	adjacentDays
	sameDayFar
	nearMiss
	overlapping
)

type timeMatch struct {
	kind   timeMatchKind
	points float64
	window OverlapWindow
	gap    int
	dayA   Weekday
	dayB   Weekday
}

// TimeCompatibility scores two availability sets in [0, MaxTimePoints]. The
// best same-day pair wins. The adjacent-day rule only applies when the sets
// share no day at all, so a far same-day pair outranks an adjacent-day pair.
func (c ScoringConfig) TimeCompatibility(a, b []TimeSlot) float64 {
	return c.bestTimeMatch(a, b).points
}

// ExplainTime summarizes the pair that produced the time score.
func (c ScoringConfig) ExplainTime(a, b []TimeSlot) string {
	m := c.bestTimeMatch(a, b)
	switch m.kind {
	case overlapping:
		return "Perfect overlap " + m.window.String()
	case nearMiss:
		return fmt.Sprintf("Near miss on %s, %dh apart", m.dayA, m.gap)
	case sameDayFar:
		return fmt.Sprintf("Same day (%s) but %dh apart", m.dayA, m.gap)
	case adjacentDays:
		return fmt.Sprintf("Adjacent days %s/%s", m.dayA, m.dayB)
	default:
		return "No shared availability"
	}
}

func (c ScoringConfig) bestTimeMatch(a, b []TimeSlot) timeMatch {
	best := timeMatch{kind: noTimeMatch}
	sameDay := false

	for _, x := range a {
		for _, y := range b {
			if x.Day != y.Day {
				continue
			}
			sameDay = true
			if m := c.sameDayMatch(x, y); m.points > best.points {
				best = m
			}
		}
	}

	if sameDay {
		return best
	}

	for _, x := range a {
		for _, y := range b {
			if x.Day.Adjacent(y.Day) {
				return timeMatch{kind: adjacentDays, points: c.AdjacentDayPoints, dayA: x.Day, dayB: y.Day}
			}
		}
	}

	return best
}

func (c ScoringConfig) sameDayMatch(x, y TimeSlot) timeMatch {
	start := max(x.StartHour, y.StartHour)
	end := min(x.EndHour, y.EndHour)

	if start < end {
		window := OverlapWindow{Day: x.Day, StartHour: start, EndHour: end}
		points := math.Min(float64(window.Hours())*c.PointsPerOverlapHour, c.MaxTimePoints)
		return timeMatch{kind: overlapping, points: points, window: window, dayA: x.Day, dayB: y.Day}
	}

	gap := start - end
	for _, tier := range c.GapTiers {
		if gap <= tier.MaxGapHours {
			return timeMatch{kind: nearMiss, points: tier.Points, gap: gap, dayA: x.Day, dayB: y.Day}
		}
	}
	return timeMatch{kind: sameDayFar, points: c.SameDayFarPoints, gap: gap, dayA: x.Day, dayB: y.Day}
}
