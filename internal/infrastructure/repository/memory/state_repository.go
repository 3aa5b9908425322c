package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
)

// StateRepository holds the latest published state per tracked team.
// Writers replace whole entries, so readers never observe a partially
// updated state.
type StateRepository struct {
	mu     sync.RWMutex
	states map[string]teamstate.TeamState
}

func NewStateRepository() *StateRepository {
	return &StateRepository{states: make(map[string]teamstate.TeamState)}
}

func (r *StateRepository) Put(_ context.Context, state teamstate.TeamState) error {
	teamID := strings.TrimSpace(state.TeamID)
	if teamID == "" {
		return fmt.Errorf("team id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[teamID] = state
	return nil
}

func (r *StateRepository) Get(_ context.Context, teamID string) (teamstate.TeamState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[strings.TrimSpace(teamID)]
	return state, ok, nil
}

func (r *StateRepository) List(_ context.Context) ([]teamstate.TeamState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]teamstate.TeamState, 0, len(r.states))
	for _, state := range r.states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TeamID < out[j].TeamID
	})

	return out, nil
}
