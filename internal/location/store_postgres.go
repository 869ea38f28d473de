package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// PostgresStore persists locations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, loc *Location) error {
	const query = `
		INSERT INTO locations (id, name, type, municipality_id, latitude, longitude, geofence_radius_meters)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			geofence_radius_meters = EXCLUDED.geofence_radius_meters
	`
	_, err := s.db.ExecContext(ctx, query,
		loc.ID.String(), loc.Name, string(loc.Type), loc.MunicipalityID.String(),
		loc.Latitude, loc.Longitude, loc.GeofenceRadiusMeters,
	)
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, locationID id.LocationID) (*Location, error) {
	const query = `
		SELECT id, name, type, municipality_id, latitude, longitude, geofence_radius_meters
		FROM locations
		WHERE id = $1
	`
	var (
		loc             Location
		rawID           string
		rawType         string
		rawMunicipality string
	)
	err := s.db.QueryRowContext(ctx, query, locationID.String()).Scan(
		&rawID, &loc.Name, &rawType, &rawMunicipality,
		&loc.Latitude, &loc.Longitude, &loc.GeofenceRadiusMeters,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("location %s: %w", locationID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find location: %w", err)
	}

	parsedID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse location id: %w", err)
	}
	parsedMunicipality, err := uuid.Parse(rawMunicipality)
	if err != nil {
		return nil, fmt.Errorf("parse municipality id: %w", err)
	}
	loc.ID = id.LocationID(parsedID)
	loc.MunicipalityID = id.MunicipalityID(parsedMunicipality)
	loc.Type = Type(rawType)
	return &loc, nil
}
