// Package recurrence computes the next fire time of simple alert rules.
// Only the FREQ=DAILY, FREQ=WEEKLY and FREQ=MONTHLY forms are understood.
package recurrence

import (
	"strings"
	"time"
)

// Frequency is a supported FREQ value.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
)

// Parse extracts the FREQ part of a rule such as "FREQ=WEEKLY;BYDAY=MO".
// Other parts are ignored.
func Parse(rule string) (Frequency, bool) {
	for _, part := range strings.Split(rule, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "FREQ") {
			continue
		}
		switch freq := Frequency(strings.ToUpper(strings.TrimSpace(value))); freq {
		case Daily, Weekly, Monthly:
			return freq, true
		default:
			return "", false
		}
	}
	return "", false
}

// Next returns the fire time following from. Monthly steps use time.AddDate,
// so Jan 31 advances to Mar 3 (or Mar 2 in leap years). Unsupported rules
// return from unchanged and false.
func Next(rule string, from time.Time) (time.Time, bool) {
	freq, ok := Parse(rule)
	if !ok {
		return from, false
	}
	switch freq {
	case Daily:
		return from.AddDate(0, 0, 1), true
	case Weekly:
		return from.AddDate(0, 0, 7), true
	default:
		return from.AddDate(0, 1, 0), true
	}
}
