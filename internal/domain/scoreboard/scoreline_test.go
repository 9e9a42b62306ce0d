package scoreboard

import (
	"errors"
	"testing"
)

func TestSplitLine(t *testing.T) {
	t.Parallel()

	scores, status, err := SplitLine("Cleveland 33   Baltimore 30 (FINAL - OT)")
	if err != nil {
		t.Fatalf("SplitLine returned error: %v", err)
	}
	if scores != "Cleveland 33   Baltimore 30" {
		t.Fatalf("scores = %q", scores)
	}
	if status != "FINAL - OT" {
		t.Fatalf("status = %q", status)
	}
}

func TestSplitLineMissingStatus(t *testing.T) {
	t.Parallel()

	_, _, err := SplitLine("Cleveland 33 Baltimore 30 FINAL")
	if !errors.Is(err, ErrMissingStatusSection) {
		t.Fatalf("err = %v, want ErrMissingStatusSection", err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status string
		want   Stage
	}{
		{name: "fourth quarter clock", status: "3:10 IN 4TH", want: StageInProgress},
		{name: "overtime clock", status: "00:00 IN OT", want: StageInProgress},
		{name: "numeric period", status: "12:45 IN 2", want: StageInProgress},
		{name: "upcoming evening game", status: "8:05 PM ET", want: StageUpcoming},
		{name: "upcoming morning game", status: "11:30 AM", want: StageUpcoming},
		{name: "final", status: "FINAL", want: StageFinished},
		{name: "final overtime", status: "FINAL - OT", want: StageFinished},
		{name: "postponed", status: "POSTPONED", want: StageFinished},
		{name: "empty status", status: "", want: StageFinished},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Classify(tc.status); got != tc.want {
				t.Fatalf("Classify(%q) = %s, want %s", tc.status, got, tc.want)
			}
		})
	}
}

func TestResolveScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		scores       string
		team         string
		wantTracked  int
		wantOpponent int
		wantErr      bool
	}{
		{
			name:         "tracked team first",
			scores:       "Cleveland 33   Baltimore 30",
			team:         "Cleveland",
			wantTracked:  33,
			wantOpponent: 30,
		},
		{
			name:         "tracked team second",
			scores:       "Memphis 91 Cleveland 81",
			team:         "Cleveland",
			wantTracked:  81,
			wantOpponent: 91,
		},
		{
			name:         "case-insensitive attribution",
			scores:       "CLEVELAND 5 Detroit 2",
			team:         "Cleveland",
			wantTracked:  5,
			wantOpponent: 2,
		},
		{
			name:    "tracked team missing",
			scores:  "Dallas 21 Philadelphia 24",
			team:    "Cleveland",
			wantErr: true,
		},
		{
			name:    "single side only",
			scores:  "Cleveland 33",
			team:    "Cleveland",
			wantErr: true,
		},
		{
			name:    "too many pairs",
			scores:  "Cleveland 33 Baltimore 30 Dallas 7",
			team:    "Cleveland",
			wantErr: true,
		},
		{
			name:    "duplicate tracked pairs",
			scores:  "Cleveland 33 Cleveland 30",
			team:    "Cleveland",
			wantErr: true,
		},
		{
			name:    "no numeric tokens",
			scores:  "Cleveland Baltimore",
			team:    "Cleveland",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tracked, opponent, err := ResolveScores(tc.scores, tc.team)
			if tc.wantErr {
				if !errors.Is(err, ErrUnresolvedScores) {
					t.Fatalf("err = %v, want ErrUnresolvedScores", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveScores returned error: %v", err)
			}
			if tracked != tc.wantTracked || opponent != tc.wantOpponent {
				t.Fatalf("scores = (%d, %d), want (%d, %d)", tracked, opponent, tc.wantTracked, tc.wantOpponent)
			}
		})
	}
}
