package incentive

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

// PostgresStore persists incentive accounts in PostgreSQL. Accounts are
// created lazily via upsert; badges live in their own table with a primary
// key on (user_id, badge) so awarding is naturally idempotent.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*Account, error) {
	const query = `
		SELECT total_points, reports_filed, reports_verified
		FROM incentive_accounts
		WHERE user_id = $1
	`
	account := &Account{UserID: userID, TicketsByPeriod: make(map[id.PeriodID]int)}
	err := s.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&account.TotalPoints, &account.ReportsFiled, &account.ReportsVerified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incentive account %s: %w", userID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find incentive account: %w", err)
	}

	if err := s.loadBadges(ctx, account); err != nil {
		return nil, err
	}
	if err := s.loadTickets(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *PostgresStore) Credit(ctx context.Context, userID id.UserID, points, reportsFiledDelta, reportsVerifiedDelta int) (*Account, error) {
	const query = `
		INSERT INTO incentive_accounts (user_id, total_points, reports_filed, reports_verified)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = incentive_accounts.total_points + EXCLUDED.total_points,
			reports_filed = incentive_accounts.reports_filed + EXCLUDED.reports_filed,
			reports_verified = incentive_accounts.reports_verified + EXCLUDED.reports_verified
		RETURNING total_points, reports_filed, reports_verified
	`
	account := &Account{UserID: userID, TicketsByPeriod: make(map[id.PeriodID]int)}
	err := s.db.QueryRowContext(ctx, query, userID.String(), points, reportsFiledDelta, reportsVerifiedDelta).Scan(
		&account.TotalPoints, &account.ReportsFiled, &account.ReportsVerified,
	)
	if err != nil {
		return nil, fmt.Errorf("credit incentive account: %w", err)
	}

	if err := s.loadBadges(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *PostgresStore) AwardBadge(ctx context.Context, userID id.UserID, badge Badge) (bool, error) {
	const query = `
		INSERT INTO incentive_badges (user_id, badge, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, userID.String(), string(badge), time.Now())
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("award badge rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) AddTicket(ctx context.Context, userID id.UserID, periodID id.PeriodID) error {
	const query = `
		INSERT INTO lottery_tickets (user_id, period_id, issued_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, userID.String(), periodID.String(), time.Now()); err != nil {
		return fmt.Errorf("add lottery ticket: %w", err)
	}
	return nil
}

func (s *PostgresStore) TicketEntries(ctx context.Context, periodID id.PeriodID) ([]id.UserID, error) {
	const query = `
		SELECT user_id
		FROM lottery_tickets
		WHERE period_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, periodID.String())
	if err != nil {
		return nil, fmt.Errorf("list ticket entries: %w", err)
	}
	defer rows.Close()

	var entries []id.UserID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan ticket entry: %w", err)
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse ticket user id: %w", err)
		}
		entries = append(entries, id.UserID(parsed))
	}
	return entries, rows.Err()
}

func (s *PostgresStore) loadBadges(ctx context.Context, account *Account) error {
	const query = `SELECT badge FROM incentive_badges WHERE user_id = $1 ORDER BY awarded_at`
	rows, err := s.db.QueryContext(ctx, query, account.UserID.String())
	if err != nil {
		return fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var badge string
		if err := rows.Scan(&badge); err != nil {
			return fmt.Errorf("scan badge: %w", err)
		}
		account.EarnedBadges = append(account.EarnedBadges, Badge(badge))
	}
	return rows.Err()
}

func (s *PostgresStore) loadTickets(ctx context.Context, account *Account) error {
	const query = `
		SELECT period_id, COUNT(*)
		FROM lottery_tickets
		WHERE user_id = $1
		GROUP BY period_id
	`
	rows, err := s.db.QueryContext(ctx, query, account.UserID.String())
	if err != nil {
		return fmt.Errorf("count tickets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			raw   string
			count int
		)
		if err := rows.Scan(&raw, &count); err != nil {
			return fmt.Errorf("scan ticket count: %w", err)
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse ticket period id: %w", err)
		}
		account.TicketsByPeriod[id.PeriodID(parsed)] = count
	}
	return rows.Err()
}
