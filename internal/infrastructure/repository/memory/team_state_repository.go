// Package memory provides in-process repositories used when no database is
// configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bweisel/win-notifier/internal/domain/teamstate"
)

type TeamStateRepository struct {
	mu     sync.RWMutex
	states map[string]teamstate.TeamState
}

func NewTeamStateRepository() *TeamStateRepository {
	return &TeamStateRepository{states: make(map[string]teamstate.TeamState)}
}

func (r *TeamStateRepository) Get(_ context.Context, teamID string) (teamstate.TeamState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[teamID]
	return state, ok, nil
}

func (r *TeamStateRepository) Save(_ context.Context, state teamstate.TeamState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("validate team state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.states[state.TeamID]
	if ok {
		// Timestamps only move forward, matching the database upsert.
		if state.InGameLastUpdated.Before(existing.InGameLastUpdated) {
			state.InGameLastUpdated = existing.InGameLastUpdated
		}
		if state.LastVictory.Before(existing.LastVictory) {
			state.LastVictory = existing.LastVictory
		}
	}
	r.states[state.TeamID] = state

	return nil
}
