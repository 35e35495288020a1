package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestParseLiteralNow(t *testing.T) {
	for _, in := range []string{"now", "Now", "  ready ", "yes", "available"} {
		w := Parse(in, "", 0, testNow)
		assert.Equal(t, TypeNow, w.Type, "input %q", in)
		assert.Equal(t, testNow, w.Start, "input %q", in)
		assert.Equal(t, testNow.Add(4*time.Hour), w.End, "input %q", in)
	}
}

func TestParseAbsoluteClockTime(t *testing.T) {
	// "5pm" at offset 0, now 10:00Z -> 17:00Z the same day, scheduled
	w := Parse("5pm", "9pm", 0, testNow)
	assert.Equal(t, TypeScheduled, w.Type)
	assert.Equal(t, time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, "5pm - 9pm", w.Display)
}

func TestParseClockVariants(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  time.Time
	}{
		{"24h clock", "17:00", time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)},
		{"minutes", "5:30pm", time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC)},
		{"noon", "12pm", time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)},
		{"morning", "11am", time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Parse(tt.start, "", 0, testNow)
			assert.Equal(t, tt.want, w.Start)
		})
	}
}

func TestParseMidnightAM(t *testing.T) {
	// 12am is midnight; same-day midnight is in the past at 10:00Z, and with
	// no end the default 4h window also ends in the past, so both roll a day.
	w := Parse("12am", "", 0, testNow)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), w.Start)
}

func TestParseTimezoneOffset(t *testing.T) {
	// player in UTC+8 says 8pm local -> 12:00Z
	w := Parse("8pm", "11pm", 8, testNow)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC), w.End)
}

func TestParseFractionalTimezoneOffset(t *testing.T) {
	// UTC+5.5 (India): 6pm local -> 12:30Z
	w := Parse("6pm", "10pm", 5.5, testNow)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 15, 16, 30, 0, 0, time.UTC), w.End)
}

func TestParseOvernightWindow(t *testing.T) {
	// 11pm-2am: naive same-day end precedes start, end gains 24h -> 3h window
	// crossing midnight.
	w := Parse("11pm", "2am", 0, testNow)
	require.Equal(t, time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, 3*time.Hour, w.End.Sub(w.Start))
}

func TestParseWholeWindowInPastRollsForward(t *testing.T) {
	now := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)
	w := Parse("1pm", "2pm", 0, now)
	assert.Equal(t, time.Date(2024, 1, 16, 13, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC), w.End)
}

func TestParseStartedWindowDoesNotRoll(t *testing.T) {
	// start in the past but end still ahead: the requester is available now
	// through end.
	now := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)
	w := Parse("1pm", "6pm", 0, now)
	assert.Equal(t, TypeNow, w.Type)
	assert.Equal(t, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC), w.End)
}

func TestParseRelativeOffsets(t *testing.T) {
	w := Parse("in 3 hours", "in 6 hours", 0, testNow)
	assert.Equal(t, TypeScheduled, w.Type)
	assert.Equal(t, testNow.Add(3*time.Hour), w.Start)
	assert.Equal(t, testNow.Add(6*time.Hour), w.End)

	w = Parse("in 30 minutes", "in 2 hours", 0, testNow)
	assert.Equal(t, TypeSoon, w.Type)
	assert.Equal(t, testNow.Add(30*time.Minute), w.Start)
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  Type
	}{
		{"start at now is now", "now", TypeNow},
		{"within two hours is soon", "in 90 minutes", TypeSoon},
		{"beyond two hours is scheduled", "in 5 hours", TypeScheduled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Parse(tt.start, "", 0, testNow)
			assert.Equal(t, tt.want, w.Type)
		})
	}
}

func TestParseUnparseableDefaults(t *testing.T) {
	w := Parse("whenever", "idk", 0, testNow)
	assert.Equal(t, TypeNow, w.Type)
	assert.Equal(t, testNow, w.Start)
	assert.Equal(t, testNow.Add(4*time.Hour), w.End)
}

func TestParseMissingEndDefaultsToFourHours(t *testing.T) {
	w := Parse("5pm", "", 0, testNow)
	assert.Equal(t, time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC), w.End)
}

func TestParseInputRange(t *testing.T) {
	w := ParseInput("5pm-9pm", 0, testNow)
	assert.Equal(t, TypeScheduled, w.Type)
	assert.Equal(t, time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, "5pm-9pm", w.Display)

	// same window as the two-field parse
	pair := Parse("5pm", "9pm", 0, testNow)
	assert.Equal(t, pair.Start, w.Start)
	assert.Equal(t, pair.End, w.End)
}

func TestParseInputWordedRange(t *testing.T) {
	// "to" is as common a separator as the dash and must keep the end bound
	for _, in := range []string{"5pm to 9pm", "5pm-9pm", "5pm - 9pm"} {
		w := ParseInput(in, 0, testNow)
		assert.Equal(t, time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), w.Start, in)
		assert.Equal(t, time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC), w.End, in)
		assert.Equal(t, TypeScheduled, w.Type, in)
	}
}

func TestParseInputOvernightRange(t *testing.T) {
	w := ParseInput("11pm-2am", 0, testNow)
	assert.Equal(t, 3*time.Hour, w.End.Sub(w.Start))
}

func TestParseInputRelative(t *testing.T) {
	w := ParseInput("in 1 hour", 0, testNow)
	assert.Equal(t, TypeSoon, w.Type)
	assert.Equal(t, testNow.Add(time.Hour), w.Start)

	w = ParseInput("3h", 0, testNow)
	assert.Equal(t, TypeLater, w.Type)

	w = ParseInput("20 mins", 0, testNow)
	assert.Equal(t, TypeNow, w.Type)

	w = ParseInput("45 minutes", 0, testNow)
	assert.Equal(t, TypeSoon, w.Type)
}

func TestParseInputSingleTimeInPastRollsToTomorrow(t *testing.T) {
	now := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)
	w := ParseInput("1pm", 0, now)
	assert.Equal(t, time.Date(2024, 1, 16, 13, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, TypeScheduled, w.Type)
}

func TestParseInputUnparseable(t *testing.T) {
	w := ParseInput("dunno", 0, testNow)
	assert.Equal(t, TypeNow, w.Type)
	assert.Equal(t, testNow, w.Start)
	assert.Equal(t, "dunno", w.Display)
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return testNow.Add(time.Duration(h) * time.Hour) }
	win := func(s, e int) Window { return Window{Start: at(s), End: at(e)} }

	assert.True(t, Overlaps(win(0, 4), win(2, 6)))
	assert.True(t, Overlaps(win(2, 6), win(0, 4)))
	// half-open: touching endpoints do not overlap
	assert.False(t, Overlaps(win(0, 4), win(4, 8)))
	assert.False(t, Overlaps(win(4, 8), win(0, 4)))
	// containment
	assert.True(t, Overlaps(win(0, 8), win(2, 3)))
	assert.True(t, Overlaps(win(2, 3), win(0, 8)))

	// zero end defaults to start+4h
	open := Window{Start: at(0)}
	assert.True(t, Overlaps(open, win(3, 5)))
	assert.False(t, Overlaps(open, win(4, 5)))
}

func TestTimezoneDisplay(t *testing.T) {
	assert.Equal(t, "UTC+8", TimezoneDisplay(8))
	assert.Equal(t, "UTC+0", TimezoneDisplay(0))
	assert.Equal(t, "UTC-5", TimezoneDisplay(-5))
	assert.Equal(t, "UTC+5:30", TimezoneDisplay(5.5))
	assert.Equal(t, "UTC-9:30", TimezoneDisplay(-9.5))
}
