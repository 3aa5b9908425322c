package teamstate

import "context"

// Repository stores the latest published state per team.
type Repository interface {
	Put(ctx context.Context, state TeamState) error
	Get(ctx context.Context, teamID string) (TeamState, bool, error)
	List(ctx context.Context) ([]TeamState, error)
}
