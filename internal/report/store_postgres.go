package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// PostgresStore persists reports in PostgreSQL. The status column is the
// cached projection of the latest history row; Create and Transition write
// both inside one transaction so they can never diverge.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rep *Report, first StatusHistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create report: %w", err)
	}
	defer tx.Rollback()

	const insertReport = `
		INSERT INTO reports (id, location_id, municipality_id, reporter_id, category,
			description, severity, status, user_latitude, user_longitude, media_refs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := tx.ExecContext(ctx, insertReport,
		rep.ID.String(), rep.LocationID.String(), rep.MunicipalityID.String(), rep.ReporterID.String(),
		string(rep.Category), rep.Description, string(rep.Severity), string(rep.Status),
		rep.UserLatitude, rep.UserLongitude, pq.Array(rep.MediaRefs), rep.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if err := insertHistory(ctx, tx, first); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reportID id.ReportID) (*Report, error) {
	const query = selectReport + ` WHERE id = $1`
	rep, err := scanReport(s.db.QueryRowContext(ctx, query, reportID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", reportID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return rep, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*Report, error) {
	query := selectReport + ` WHERE 1=1`
	args := []any{}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.MunicipalityID != nil {
		args = append(args, filter.MunicipalityID.String())
		query += fmt.Sprintf(" AND municipality_id = $%d", len(args))
	}
	if filter.ExcludeReporter != nil {
		args = append(args, filter.ExcludeReporter.String())
		query += fmt.Sprintf(" AND reporter_id <> $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (s *PostgresStore) History(ctx context.Context, reportID id.ReportID) ([]StatusHistoryEntry, error) {
	const query = `
		SELECT report_id, status, changed_by, notes, changed_at
		FROM report_status_history
		WHERE report_id = $1
		ORDER BY changed_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, reportID.String())
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []StatusHistoryEntry
	for rows.Next() {
		var (
			entry  StatusHistoryEntry
			rawID  string
			status string
		)
		if err := rows.Scan(&rawID, &status, &entry.ChangedBy, &entry.Notes, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse history report id: %w", err)
		}
		entry.ReportID = id.ReportID(parsed)
		entry.Status = Status(status)
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("report %s: %w", reportID, sentinel.ErrNotFound)
	}
	return entries, rows.Err()
}

// Transition performs the compare-and-set status move: the UPDATE is
// conditional on the current status, so two racing transitions resolve to
// exactly one winner. The history row commits in the same transaction.
func (s *PostgresStore) Transition(ctx context.Context, reportID id.ReportID, from, to Status, entry StatusHistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	const update = `UPDATE reports SET status = $3 WHERE id = $1 AND status = $2`
	result, err := tx.ExecContext(ctx, update, reportID.String(), string(from), string(to))
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		// Either the report does not exist or its status moved under us.
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM reports WHERE id = $1`, reportID.String()).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("report %s: %w", reportID, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read current status: %w", err)
		}
		return fmt.Errorf("report %s is %s, expected %s: %w", reportID, current, from, sentinel.ErrInvalidState)
	}

	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

const selectReport = `
	SELECT id, location_id, municipality_id, reporter_id, category, description,
		severity, status, user_latitude, user_longitude, media_refs, created_at
	FROM reports`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		rep             Report
		rawID           string
		rawLocation     string
		rawMunicipality string
		rawReporter     string
		category        string
		severity        string
		status          string
		mediaRefs       pq.StringArray
	)
	err := row.Scan(&rawID, &rawLocation, &rawMunicipality, &rawReporter, &category,
		&rep.Description, &severity, &status, &rep.UserLatitude, &rep.UserLongitude,
		&mediaRefs, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse report id: %w", err)
	}
	parsedLocation, err := uuid.Parse(rawLocation)
	if err != nil {
		return nil, fmt.Errorf("parse location id: %w", err)
	}
	parsedMunicipality, err := uuid.Parse(rawMunicipality)
	if err != nil {
		return nil, fmt.Errorf("parse municipality id: %w", err)
	}
	parsedReporter, err := uuid.Parse(rawReporter)
	if err != nil {
		return nil, fmt.Errorf("parse reporter id: %w", err)
	}

	rep.ID = id.ReportID(parsedID)
	rep.LocationID = id.LocationID(parsedLocation)
	rep.MunicipalityID = id.MunicipalityID(parsedMunicipality)
	rep.ReporterID = id.UserID(parsedReporter)
	rep.Category = Category(category)
	rep.Severity = Severity(severity)
	rep.Status = Status(status)
	rep.MediaRefs = []string(mediaRefs)
	return &rep, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, entry StatusHistoryEntry) error {
	const query = `
		INSERT INTO report_status_history (report_id, status, changed_by, notes, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query,
		entry.ReportID.String(), string(entry.Status), entry.ChangedBy, entry.Notes, entry.Timestamp,
	); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}
