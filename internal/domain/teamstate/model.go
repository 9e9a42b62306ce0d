package teamstate

import (
	"fmt"
	"strings"
	"time"
)

// TeamState is the long-lived per-team record the win debouncer reads and
// mutates. Records are created lazily and never deleted.
type TeamState struct {
	TeamID            string    `json:"teamId" db:"team_id"`
	InGame            bool      `json:"inGame" db:"in_game"`
	InGameLastUpdated time.Time `json:"inGameLastUpdated" db:"in_game_last_updated"`
	LastVictory       time.Time `json:"lastVictory" db:"last_victory"`
}

// New returns the zero record for a team that has never been tracked.
func New(teamID string) TeamState {
	return TeamState{TeamID: strings.TrimSpace(teamID)}
}

func (s TeamState) Validate() error {
	if strings.TrimSpace(s.TeamID) == "" {
		return fmt.Errorf("team id is required")
	}
	return nil
}

// MarkInProgress records a live-game observation. Timestamps only advance.
func (s *TeamState) MarkInProgress(now time.Time) {
	s.InGame = true
	if now.After(s.InGameLastUpdated) {
		s.InGameLastUpdated = now
	}
}

// MarkVictory records a confirmed win and closes out the tracked game.
func (s *TeamState) MarkVictory(now time.Time) {
	s.InGame = false
	if now.After(s.LastVictory) {
		s.LastVictory = now
	}
}

// MarkFinished closes out the tracked game without recording a win.
func (s *TeamState) MarkFinished() {
	s.InGame = false
}

// WonWithin reports whether the last recorded victory falls inside the
// notification window ending at now.
func (s TeamState) WonWithin(window time.Duration, now time.Time) bool {
	if s.LastVictory.IsZero() {
		return false
	}
	elapsed := now.Sub(s.LastVictory)
	return elapsed >= 0 && elapsed < window
}

// HasFreshInProgress reports whether the game was observed live after the
// last recorded victory. It is the guard against re-reporting a historical
// win once the notification window has elapsed.
func (s TeamState) HasFreshInProgress() bool {
	return s.InGameLastUpdated.After(s.LastVictory)
}
