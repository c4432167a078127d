// Package pattern implements the date/time pattern mini-language used by
// notification templates. Patterns are sequences of literal characters and
// case-sensitive tokens; anything unrecognized passes through untouched, which
// lets patterns embed punctuation like commas and slashes.
//
// Supported tokens:
//
//	EEEE  full weekday name        Monday
//	MMMM  full month name          January
//	MMM   abbreviated month name   Jan
//	MM    two-digit month          01
//	dd    two-digit day            15
//	yyyy  four-digit year          2024
//	hh    12-hour clock, padded    09
//	HH    24-hour clock, padded    21
//	mm    minutes, padded          05
//	a     meridiem marker          AM / PM
//
// Names are English and the meridiem is upper-case. This is deliberate: the
// remote system's pattern strings assume a fixed locale.
package pattern

import (
	"fmt"
	"strings"
	"time"
)

// tokens are tried in order; longer tokens first so MMMM never half-matches
// as MM twice.
var tokens = []struct {
	text   string
	format func(t time.Time) string
}{
	{"EEEE", func(t time.Time) string { return t.Weekday().String() }},
	{"MMMM", func(t time.Time) string { return t.Month().String() }},
	{"yyyy", func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"MMM", func(t time.Time) string { return t.Month().String()[:3] }},
	{"MM", func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"dd", func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"hh", func(t time.Time) string { return fmt.Sprintf("%02d", hour12(t)) }},
	{"HH", func(t time.Time) string { return fmt.Sprintf("%02d", t.Hour()) }},
	{"mm", func(t time.Time) string { return fmt.Sprintf("%02d", t.Minute()) }},
	{"a", meridiem},
}

// Format renders the pattern for the given instant. An empty pattern yields
// an empty string.
func Format(pat string, t time.Time) string {
	if pat == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(pat) + 16)

	for i := 0; i < len(pat); {
		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(pat[i:], tok.text) {
				b.WriteString(tok.format(t))
				i += len(tok.text)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pat[i])
			i++
		}
	}

	return b.String()
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return h
}

func meridiem(t time.Time) string {
	if t.Hour() < 12 {
		return "AM"
	}
	return "PM"
}
