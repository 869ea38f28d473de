package location

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

func TestRegistryResolve(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	registry := NewRegistry(store)

	loc := &Location{
		ID:                   id.NewLocationID(),
		Name:                 "MG Road Streetlight Segment",
		Type:                 TypeStreetSegment,
		MunicipalityID:       id.NewMunicipalityID(),
		Latitude:             12.9752,
		Longitude:            77.6057,
		GeofenceRadiusMeters: 60,
	}
	require.NoError(t, store.Save(ctx, loc))

	t.Run("known location", func(t *testing.T) {
		found, err := registry.Resolve(ctx, loc.ID)
		require.NoError(t, err)
		assert.Equal(t, loc.Name, found.Name)
		assert.Equal(t, loc.GeofenceRadiusMeters, found.GeofenceRadiusMeters)
	})

	t.Run("unknown location", func(t *testing.T) {
		_, err := registry.Resolve(ctx, id.NewLocationID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestInMemoryStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	loc := &Location{ID: id.NewLocationID(), Name: "Old Name", Type: TypePark, MunicipalityID: id.NewMunicipalityID()}
	require.NoError(t, store.Save(ctx, loc))

	loc.Name = "Corrected Name"
	require.NoError(t, store.Save(ctx, loc))

	found, err := store.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Corrected Name", found.Name)
}
