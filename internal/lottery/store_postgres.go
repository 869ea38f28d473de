package lottery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// PostgresStore persists lottery periods in PostgreSQL. The conditional
// UPDATE in MarkDrawn is the at-most-once draw guard.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, period *Period) error {
	const query = `
		INSERT INTO lottery_periods (id, municipality_id, start_at, end_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		period.ID.String(), period.MunicipalityID.String(), period.Start, period.End, string(period.Status),
	)
	if err != nil {
		return fmt.Errorf("create lottery period: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, periodID id.PeriodID) (*Period, error) {
	const query = selectPeriod + ` WHERE id = $1`
	period, err := scanPeriod(s.db.QueryRowContext(ctx, query, periodID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lottery period %s: %w", periodID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find lottery period: %w", err)
	}
	return period, nil
}

func (s *PostgresStore) FindOpenByMunicipality(ctx context.Context, municipalityID id.MunicipalityID, at time.Time) (*Period, error) {
	const query = selectPeriod + `
		WHERE municipality_id = $1 AND status = 'OPEN' AND start_at <= $2 AND end_at > $2
		ORDER BY start_at
		LIMIT 1`
	period, err := scanPeriod(s.db.QueryRowContext(ctx, query, municipalityID.String(), at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("open lottery period for %s: %w", municipalityID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find open lottery period: %w", err)
	}
	return period, nil
}

func (s *PostgresStore) MarkDrawn(ctx context.Context, periodID id.PeriodID, winner id.UserID, at time.Time) error {
	const query = `
		UPDATE lottery_periods
		SET status = 'DRAWN', winner_user_id = $2, drawn_at = $3
		WHERE id = $1 AND status = 'OPEN'
	`
	result, err := s.db.ExecContext(ctx, query, periodID.String(), winner.String(), at)
	if err != nil {
		return fmt.Errorf("mark period drawn: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark drawn rows affected: %w", err)
	}
	if affected == 0 {
		var status string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM lottery_periods WHERE id = $1`, periodID.String()).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lottery period %s: %w", periodID, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read period status: %w", err)
		}
		return fmt.Errorf("lottery period %s is %s: %w", periodID, status, sentinel.ErrInvalidState)
	}
	return nil
}

const selectPeriod = `
	SELECT id, municipality_id, start_at, end_at, status, winner_user_id, drawn_at
	FROM lottery_periods`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (*Period, error) {
	var (
		period          Period
		rawID           string
		rawMunicipality string
		status          string
		rawWinner       sql.NullString
		drawnAt         sql.NullTime
	)
	err := row.Scan(&rawID, &rawMunicipality, &period.Start, &period.End, &status, &rawWinner, &drawnAt)
	if err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse period id: %w", err)
	}
	parsedMunicipality, err := uuid.Parse(rawMunicipality)
	if err != nil {
		return nil, fmt.Errorf("parse period municipality id: %w", err)
	}
	period.ID = id.PeriodID(parsedID)
	period.MunicipalityID = id.MunicipalityID(parsedMunicipality)
	period.Status = PeriodStatus(status)

	if rawWinner.Valid {
		parsedWinner, err := uuid.Parse(rawWinner.String)
		if err != nil {
			return nil, fmt.Errorf("parse winner id: %w", err)
		}
		winner := id.UserID(parsedWinner)
		period.WinnerUserID = &winner
	}
	if drawnAt.Valid {
		t := drawnAt.Time
		period.DrawnAt = &t
	}
	return &period, nil
}
