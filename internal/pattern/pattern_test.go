package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	morning := time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)
	evening := time.Date(2024, time.January, 15, 21, 5, 0, 0, time.UTC)

	tests := []struct {
		name     string
		pattern  string
		instant  time.Time
		expected string
	}{
		{
			name:     "full date pattern",
			pattern:  "EEEE, MMMM dd, yyyy",
			instant:  morning,
			expected: "Monday, January 15, 2024",
		},
		{
			name:     "12 hour clock with meridiem",
			pattern:  "hh:mm a",
			instant:  morning,
			expected: "09:30 AM",
		},
		{
			name:     "24 hour clock",
			pattern:  "HH:mm",
			instant:  evening,
			expected: "21:05",
		},
		{
			name:     "abbreviated month",
			pattern:  "MMM dd",
			instant:  morning,
			expected: "Jan 15",
		},
		{
			name:     "numeric date with slashes",
			pattern:  "MM/dd/yyyy",
			instant:  morning,
			expected: "01/15/2024",
		},
		{
			name:     "evening meridiem is PM",
			pattern:  "hh:mm a",
			instant:  evening,
			expected: "09:05 PM",
		},
		{
			name:     "empty pattern yields empty string",
			pattern:  "",
			instant:  morning,
			expected: "",
		},
		{
			name:     "unrecognized characters pass through",
			pattern:  "on dd @ hh!",
			instant:  morning,
			expected: "on 15 @ 09!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.pattern, tt.instant))
		})
	}
}

func TestFormat_MidnightAndNoon(t *testing.T) {
	midnight := time.Date(2024, time.June, 1, 0, 15, 0, 0, time.UTC)
	noon := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "12:15 AM", Format("hh:mm a", midnight))
	assert.Equal(t, "12:00 PM", Format("hh:mm a", noon))
	assert.Equal(t, "00:15", Format("HH:mm", midnight))
}

func TestFormat_TokenIsCaseSensitive(t *testing.T) {
	morning := time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

	// Lower-case variants of unknown tokens are literals.
	assert.Equal(t, "eeee 15", Format("eeee dd", morning))
	assert.Equal(t, "A", Format("A", morning))
}
