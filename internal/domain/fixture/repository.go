package fixture

import "context"

// Source exposes the season schedule read used by the tracker.
type Source interface {
	SeasonFixtures(ctx context.Context, season string) ([]Fixture, error)
}
