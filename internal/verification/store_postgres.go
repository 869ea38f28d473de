package verification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// PostgresStore persists verification votes in PostgreSQL. The unique
// constraint on (report_id, voter_id) plus ON CONFLICT DO UPDATE gives the
// replace-not-duplicate semantics.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, vote *Vote) error {
	// The insert only fires while the report row is still PENDING. The
	// process-local lock in the ledger cannot see other instances, so the
	// database enforces the closed-report rule.
	const query = `
		INSERT INTO verification_votes (report_id, voter_id, decision, voter_latitude, voter_longitude, created_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM reports WHERE id = $1 AND status = 'PENDING')
		ON CONFLICT (report_id, voter_id) DO UPDATE SET
			decision = EXCLUDED.decision,
			voter_latitude = EXCLUDED.voter_latitude,
			voter_longitude = EXCLUDED.voter_longitude,
			created_at = EXCLUDED.created_at
	`
	res, err := s.db.ExecContext(ctx, query,
		vote.ReportID.String(), vote.VoterID.String(), string(vote.Decision),
		vote.VoterLatitude, vote.VoterLongitude, vote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s no longer accepts votes: %w", vote.ReportID, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *PostgresStore) ListByReport(ctx context.Context, reportID id.ReportID) ([]*Vote, error) {
	const query = `
		SELECT report_id, voter_id, decision, voter_latitude, voter_longitude, created_at
		FROM verification_votes
		WHERE report_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, reportID.String())
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var votes []*Vote
	for rows.Next() {
		var (
			vote       Vote
			rawReport  string
			rawVoter   string
			rawDecided string
		)
		if err := rows.Scan(&rawReport, &rawVoter, &rawDecided,
			&vote.VoterLatitude, &vote.VoterLongitude, &vote.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		parsedReport, err := uuid.Parse(rawReport)
		if err != nil {
			return nil, fmt.Errorf("parse vote report id: %w", err)
		}
		parsedVoter, err := uuid.Parse(rawVoter)
		if err != nil {
			return nil, fmt.Errorf("parse voter id: %w", err)
		}
		vote.ReportID = id.ReportID(parsedReport)
		vote.VoterID = id.UserID(parsedVoter)
		vote.Decision = Decision(rawDecided)
		votes = append(votes, &vote)
	}
	return votes, rows.Err()
}

func (s *PostgresStore) Confirmers(ctx context.Context, reportID id.ReportID) ([]id.UserID, error) {
	const query = `
		SELECT voter_id
		FROM verification_votes
		WHERE report_id = $1 AND decision = 'CONFIRM'
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, reportID.String())
	if err != nil {
		return nil, fmt.Errorf("list confirmers: %w", err)
	}
	defer rows.Close()

	var confirmers []id.UserID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan confirmer: %w", err)
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse confirmer id: %w", err)
		}
		confirmers = append(confirmers, id.UserID(parsed))
	}
	return confirmers, rows.Err()
}
