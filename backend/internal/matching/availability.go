// Package matching holds the compatibility rules used to pair skill requests
// with skill offers: availability parsing, schedule overlap, distance, and the
// composite score.
package matching

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday is a day of the week, Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var weekdayFullNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday accepts a three-letter abbreviation or a full English day
// name, case-insensitively.
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, full := range weekdayFullNames {
		if s == full || s == full[:3] {
			return Weekday(i), true
		}
	}
	return 0, false
}

// Adjacent reports whether o falls on the calendar day before or after d.
// Sunday and Monday are adjacent.
func (d Weekday) Adjacent(o Weekday) bool {
	diff := (int(d) - int(o) + 7) % 7
	return diff == 1 || diff == 6
}

// TimeSlot is one day-bounded availability window. Hours are whole hours in
// [0,24) and StartHour < EndHour.
type TimeSlot struct {
	Day       Weekday `json:"day"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %d-%d", s.Day, s.StartHour, s.EndHour)
}

// ParseAvailability turns an encoding like "Mon 9-12,Tue 14-16" into slots.
// Hours are unsigned decimal integers, so "Fri +3-5" is malformed. Tokens
// that cannot be parsed are skipped; the rest are still returned.
func ParseAvailability(raw string) []TimeSlot {
	var slots []TimeSlot
	for _, token := range strings.Split(raw, ",") {
		if slot, ok := parseSlot(token); ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

func parseSlot(token string) (TimeSlot, bool) {
	fields := strings.Fields(token)
	if len(fields) != 2 {
		return TimeSlot{}, false
	}

	day, ok := ParseWeekday(fields[0])
	if !ok {
		return TimeSlot{}, false
	}

	startStr, endStr, found := strings.Cut(fields[1], "-")
	if !found {
		return TimeSlot{}, false
	}
	start, ok := parseHour(startStr)
	if !ok {
		return TimeSlot{}, false
	}
	end, ok := parseHour(endStr)
	if !ok {
		return TimeSlot{}, false
	}

	if start < 0 || end >= 24 || start >= end {
		return TimeSlot{}, false
	}

	return TimeSlot{Day: day, StartHour: start, EndHour: end}, true
}

// parseHour accepts digits only; strconv.Atoi alone would let a sign through.
func parseHour(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
