package location

import (
	"context"
	"errors"

	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
	"civictrust/pkg/platform/sentinel"
)

// Store persists registered locations. Save exists for seeding and
// administrative correction; location CRUD is otherwise out of engine scope.
type Store interface {
	Save(ctx context.Context, loc *Location) error
	FindByID(ctx context.Context, locationID id.LocationID) (*Location, error)
}

// Registry resolves location IDs for the report and verification paths.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Resolve returns the location or a NotFound domain error.
func (r *Registry) Resolve(ctx context.Context, locationID id.LocationID) (*Location, error) {
	loc, err := r.store.FindByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve location", err)
	}
	return loc, nil
}
