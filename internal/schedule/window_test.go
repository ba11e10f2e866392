package schedule

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", value, err)
	}
	return tod
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "09:00", want: 9 * 60},
		{input: "16:30", want: 16*60 + 30},
		{input: "00:00", want: 0},
		{input: "23:59", want: 23*60 + 59},
		{input: "13:00:00", want: 13 * 60},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "noon", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestWindowOverlapsIsHalfOpen(t *testing.T) {
	a := Window{Start: mustTime(t, "14:00"), End: mustTime(t, "16:00")}
	b := Window{Start: mustTime(t, "16:00"), End: mustTime(t, "17:00")}

	if a.Overlaps(b) {
		t.Fatal("back-to-back windows must not overlap")
	}
	if b.Overlaps(a) {
		t.Fatal("overlap must be symmetric")
	}

	c := Window{Start: mustTime(t, "15:30"), End: mustTime(t, "16:30")}
	if !a.Overlaps(c) {
		t.Fatal("expected 14:00-16:00 to overlap 15:30-16:30")
	}
	if !c.Overlaps(a) {
		t.Fatal("overlap must be symmetric")
	}
}

func TestWindowContains(t *testing.T) {
	hours := Window{Start: mustTime(t, "08:00"), End: mustTime(t, "17:00")}

	inside := Window{Start: mustTime(t, "08:00"), End: mustTime(t, "17:00")}
	if !hours.Contains(inside) {
		t.Fatal("window must contain itself")
	}

	spillsOver := Window{Start: mustTime(t, "16:00"), End: mustTime(t, "18:00")}
	if hours.Contains(spillsOver) {
		t.Fatal("16:00-18:00 exceeds 08:00-17:00 coaching hours")
	}
}

func TestSessionWindow(t *testing.T) {
	w := SessionWindow(mustTime(t, "13:00"), 1.5)
	if w.Start != 13*60 || w.End != 14*60+30 {
		t.Fatalf("expected 13:00-14:30, got %s", w)
	}
}

func TestWindowAt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, loc)

	start, end := Window{Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")}.At(date, loc)
	if start.Hour() != 9 || end.Hour() != 10 {
		t.Fatalf("expected 09:00-10:00 local, got %s-%s", start, end)
	}
	if start.Location() != loc {
		t.Fatal("anchored time must stay in the coach's location")
	}
}
