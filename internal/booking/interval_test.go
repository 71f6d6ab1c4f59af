package booking

import (
	"testing"
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestIntervalValidate(t *testing.T) {
	valid := Interval{Start: ts("2026-09-01T14:00:00Z"), End: ts("2026-09-04T11:00:00Z")}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid interval, got: %v", err)
	}

	inverted := Interval{Start: ts("2026-09-04T11:00:00Z"), End: ts("2026-09-01T14:00:00Z")}
	if err := inverted.Validate(); err != ErrInvalidInterval {
		t.Errorf("expected ErrInvalidInterval for inverted interval, got: %v", err)
	}

	empty := Interval{Start: ts("2026-09-01T14:00:00Z"), End: ts("2026-09-01T14:00:00Z")}
	if err := empty.Validate(); err != ErrInvalidInterval {
		t.Errorf("expected ErrInvalidInterval for empty interval, got: %v", err)
	}
}

func TestIntervalOverlaps(t *testing.T) {
	base := Interval{Start: ts("2026-09-10T00:00:00Z"), End: ts("2026-09-13T00:00:00Z")}

	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", base, true},
		{"contained", Interval{ts("2026-09-11T00:00:00Z"), ts("2026-09-12T00:00:00Z")}, true},
		{"overlaps start", Interval{ts("2026-09-08T00:00:00Z"), ts("2026-09-11T00:00:00Z")}, true},
		{"overlaps end", Interval{ts("2026-09-12T00:00:00Z"), ts("2026-09-15T00:00:00Z")}, true},
		{"covers", Interval{ts("2026-09-01T00:00:00Z"), ts("2026-09-30T00:00:00Z")}, true},
		{"before", Interval{ts("2026-09-01T00:00:00Z"), ts("2026-09-05T00:00:00Z")}, false},
		{"after", Interval{ts("2026-09-20T00:00:00Z"), ts("2026-09-25T00:00:00Z")}, false},
		// Half-open semantics: boundary touching is not a conflict, so a
		// reservation ending exactly when another starts is accepted.
		{"ends at base start", Interval{ts("2026-09-08T00:00:00Z"), ts("2026-09-10T00:00:00Z")}, false},
		{"starts at base end", Interval{ts("2026-09-13T00:00:00Z"), ts("2026-09-15T00:00:00Z")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.want {
				t.Errorf("Overlaps(%v) = %v, want %v", tc.other, got, tc.want)
			}
			// The predicate is symmetric.
			if got := tc.other.Overlaps(base); got != tc.want {
				t.Errorf("reverse Overlaps(%v) = %v, want %v", tc.other, got, tc.want)
			}
		})
	}
}

func TestIntervalUnitsTruncates(t *testing.T) {
	cases := []struct {
		name string
		iv   Interval
		g    model.Granularity
		want int64
	}{
		{"three full nights", Interval{ts("2026-09-01T00:00:00Z"), ts("2026-09-04T00:00:00Z")}, model.PerNight, 3},
		{"partial night truncated", Interval{ts("2026-09-01T14:00:00Z"), ts("2026-09-04T11:00:00Z")}, model.PerNight, 2},
		{"ninety minutes is one hour", Interval{ts("2026-09-01T10:00:00Z"), ts("2026-09-01T11:30:00Z")}, model.PerHour, 1},
		{"sub-unit interval is zero", Interval{ts("2026-09-01T10:00:00Z"), ts("2026-09-01T10:30:00Z")}, model.PerHour, 0},
		{"two days", Interval{ts("2026-09-01T08:00:00Z"), ts("2026-09-03T09:00:00Z")}, model.PerDay, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.iv.Units(tc.g); got != tc.want {
				t.Errorf("Units(%s) = %d, want %d", tc.g, got, tc.want)
			}
		})
	}
}
