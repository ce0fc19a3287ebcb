package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcademicTerm(t *testing.T) {
	tz := Location

	cases := []struct {
		now      time.Time
		expected string
	}{
		{now: time.Date(2025, time.March, 1, 0, 0, 0, 0, tz), expected: "2025/1"},
		{now: time.Date(2025, time.May, 22, 0, 0, 0, 0, tz), expected: "2025/1"},
		{now: time.Date(2025, time.July, 31, 23, 0, 0, 0, tz), expected: "2025/1"},
		{now: time.Date(2025, time.August, 1, 0, 0, 0, 0, tz), expected: "2025/2"},
		{now: time.Date(2025, time.December, 10, 0, 0, 0, 0, tz), expected: "2025/2"},
		{now: time.Date(2026, time.January, 15, 0, 0, 0, 0, tz), expected: "2025/2"},
		{now: time.Date(2026, time.February, 28, 0, 0, 0, 0, tz), expected: "2025/2"},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, AcademicTerm(test.now), test.now.String())
	}
}
