package daterange

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
		nights  int
	}{
		{
			name:   "single night",
			start:  date(2025, 12, 1),
			end:    date(2025, 12, 2),
			nights: 1,
		},
		{
			name:   "four nights",
			start:  date(2025, 12, 1),
			end:    date(2025, 12, 5),
			nights: 4,
		},
		{
			name:    "zero nights rejected",
			start:   date(2025, 12, 1),
			end:     date(2025, 12, 1),
			wantErr: ErrInvalidRange,
		},
		{
			name:    "end before start rejected",
			start:   date(2025, 12, 5),
			end:     date(2025, 12, 1),
			wantErr: ErrInvalidRange,
		},
		{
			name:    "zero values rejected",
			wantErr: ErrInvalidRange,
		},
		{
			name:   "time of day is stripped",
			start:  time.Date(2025, 12, 1, 15, 30, 0, 0, time.UTC),
			end:    time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC),
			nights: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dr, err := New(tc.start, tc.end)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if got := dr.Nights(); got != tc.nights {
				t.Fatalf("Nights() = %d, want %d", got, tc.nights)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	base, err := New(date(2025, 12, 1), date(2025, 12, 5))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical", date(2025, 12, 1), date(2025, 12, 5), true},
		{"partial overlap at tail", date(2025, 12, 3), date(2025, 12, 6), true},
		{"partial overlap at head", date(2025, 11, 28), date(2025, 12, 2), true},
		{"fully contained", date(2025, 12, 2), date(2025, 12, 3), true},
		{"back to back after", date(2025, 12, 5), date(2025, 12, 8), false},
		{"back to back before", date(2025, 11, 28), date(2025, 12, 1), false},
		{"disjoint", date(2026, 1, 1), date(2026, 1, 3), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			other, err := New(tc.start, tc.end)
			if err != nil {
				t.Fatal(err)
			}
			if got := base.Overlaps(other); got != tc.want {
				t.Fatalf("Overlaps() = %v, want %v", got, tc.want)
			}
			if got := other.Overlaps(base); got != tc.want {
				t.Fatalf("Overlaps() not symmetric: = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestContainsDate(t *testing.T) {
	dr, err := New(date(2025, 12, 1), date(2025, 12, 5))
	if err != nil {
		t.Fatal(err)
	}
	if !dr.ContainsDate(date(2025, 12, 1)) {
		t.Error("start date should be contained")
	}
	if !dr.ContainsDate(date(2025, 12, 4)) {
		t.Error("last night should be contained")
	}
	if dr.ContainsDate(date(2025, 12, 5)) {
		t.Error("checkout date should not be contained")
	}
}
