package teamstate

import "context"

// Repository is the key-value store for per-team records. Get reports absence
// through its second return value rather than an error.
type Repository interface {
	Get(ctx context.Context, teamID string) (TeamState, bool, error)
	Save(ctx context.Context, state TeamState) error
}
