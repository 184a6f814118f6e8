package tick

import (
	"testing"
	"time"
)

func TestToMillisRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 7, 8, 40, 1000, 28_800, 345_600} {
		ms := ToMillis(v)
		if ms/MillisecondsPerTick != v {
			t.Fatalf("ToMillis(%d)/125=%d want=%d", v, ms/MillisecondsPerTick, v)
		}
	}
	if got := ToMillis(40); got != 5000 {
		t.Fatalf("ToMillis(40)=%d want=5000", got)
	}
}

func TestToSecondsTruncates(t *testing.T) {
	tests := []struct {
		ticks uint32
		want  uint32
	}{
		{ticks: 0, want: 0},
		{ticks: 7, want: 0},
		{ticks: 8, want: 1},
		{ticks: 15, want: 1},
		{ticks: 14_400, want: 1800},
	}
	for _, tc := range tests {
		if got := ToSeconds(tc.ticks); got != tc.want {
			t.Fatalf("ToSeconds(%d)=%d want=%d", tc.ticks, got, tc.want)
		}
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(16); got != 2*time.Second {
		t.Fatalf("Duration(16)=%s want=2s", got)
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[uint32]string{
		0:         "00:00",
		5000:      "00:05",
		750_500:   "12:30",
		3_720_000: "62:00",
	}
	for ms, want := range tests {
		if got := FormatClock(ms); got != want {
			t.Fatalf("FormatClock(%d)=%q want=%q", ms, got, want)
		}
	}
}
