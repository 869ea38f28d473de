package lifecycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "civictrust/pkg/domain"
)

// PostgresOutbox persists lifecycle events using the transactional outbox
// pattern. The relay worker reads pending rows and hands them to the external
// notification channel.
type PostgresOutbox struct {
	db *sql.DB
}

func NewPostgresOutbox(db *sql.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db}
}

// outboxPayload is the JSON structure relayed to external consumers.
type outboxPayload struct {
	Type           string   `json:"type"`
	OccurredAt     string   `json:"occurred_at"`
	ReportID       string   `json:"report_id"`
	ReporterID     string   `json:"reporter_id"`
	MunicipalityID string   `json:"municipality_id"`
	VerifierIDs    []string `json:"verifier_ids,omitempty"`
	ActorID        string   `json:"actor_id,omitempty"`
}

func (s *PostgresOutbox) Append(ctx context.Context, event Event) error {
	payload := outboxPayload{
		Type:           string(event.Type),
		OccurredAt:     event.OccurredAt.Format(time.RFC3339Nano),
		ReportID:       event.ReportID.String(),
		ReporterID:     event.ReporterID.String(),
		MunicipalityID: event.MunicipalityID.String(),
		ActorID:        event.ActorID,
	}
	for _, v := range event.VerifierIDs {
		payload.VerifierIDs = append(payload.VerifierIDs, v.String())
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	const query = `
		INSERT INTO lifecycle_outbox (event_type, report_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, string(event.Type), event.ReportID.String(), payloadBytes, time.Now()); err != nil {
		return fmt.Errorf("append outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresOutbox) Pending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	const query = `
		SELECT id, payload, created_at
		FROM lifecycle_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var (
			entry        OutboxEntry
			payloadBytes []byte
		)
		if err := rows.Scan(&entry.ID, &payloadBytes, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		event, err := eventFromPayload(payloadBytes)
		if err != nil {
			return nil, err
		}
		entry.Event = event
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresOutbox) MarkPublished(ctx context.Context, entryID int64, at time.Time) error {
	const query = `UPDATE lifecycle_outbox SET published_at = $2 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, entryID, at); err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}

func eventFromPayload(payloadBytes []byte) (Event, error) {
	var payload outboxPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return Event{}, fmt.Errorf("unmarshal outbox payload: %w", err)
	}

	event := Event{
		Type:    EventType(payload.Type),
		ActorID: payload.ActorID,
	}
	if t, err := time.Parse(time.RFC3339Nano, payload.OccurredAt); err == nil {
		event.OccurredAt = t
	}
	if u, err := uuid.Parse(payload.ReportID); err == nil {
		event.ReportID = id.ReportID(u)
	}
	if u, err := uuid.Parse(payload.ReporterID); err == nil {
		event.ReporterID = id.UserID(u)
	}
	if u, err := uuid.Parse(payload.MunicipalityID); err == nil {
		event.MunicipalityID = id.MunicipalityID(u)
	}
	for _, v := range payload.VerifierIDs {
		if u, err := uuid.Parse(v); err == nil {
			event.VerifierIDs = append(event.VerifierIDs, id.UserID(u))
		}
	}
	return event, nil
}
