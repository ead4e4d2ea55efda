// Package auditevent implements the AuditEvent repository using PostgreSQL.
// It provides append-only operations for the compliance audit trail.
package auditevent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/collectaai/collecta-backend/internal/adapter/postgres"
	"github.com/collectaai/collecta-backend/internal/domain"
)

// Repo provides audit event persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit event repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const eventColumns = `id, event_type, conversation_id, debtor_id, account_id, severity, description, details, created_at`

const createSQL = `
INSERT INTO audit_events (id, event_type, conversation_id, debtor_id, account_id, severity, description, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const listByConversationSQL = `
SELECT ` + eventColumns + `
FROM audit_events
WHERE conversation_id = $1
ORDER BY created_at
LIMIT $2`

// Create inserts an audit event (fire-and-forget, nothing returned).
func (r *Repo) Create(ctx context.Context, e domain.AuditEvent) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	details, err := marshalDetails(e.Details)
	if err != nil {
		return fmt.Errorf("audit_event %s: %w", e.ID, err)
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = querier.Exec(ctx, createSQL,
		e.ID, e.EventType, e.ConversationID, e.DebtorID, e.AccountID,
		string(e.Severity), e.Description, details,
		createdAt.UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		return mapError(err, "audit_event", e.ID)
	}

	return nil
}

// ListByConversation returns the audit trail of a conversation in
// chronological order, limited to `limit` events.
func (r *Repo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByConversationSQL, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit_events by conversation: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list audit_events by conversation: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit_events by conversation: %w", err)
	}

	return events, nil
}

func scanEvent(row pgx.Row) (domain.AuditEvent, error) {
	var (
		id             uuid.UUID
		eventType      string
		conversationID *uuid.UUID
		debtorID       *uuid.UUID
		accountID      *uuid.UUID
		severity       string
		description    string
		detailsJSON    []byte
		createdAt      time.Time
	)

	if err := row.Scan(&id, &eventType, &conversationID, &debtorID, &accountID,
		&severity, &description, &detailsJSON, &createdAt); err != nil {
		return domain.AuditEvent{}, err
	}

	details, err := unmarshalDetails(detailsJSON)
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("audit_event %s: %w", id, err)
	}

	return domain.AuditEvent{
		ID:             id,
		EventType:      eventType,
		ConversationID: conversationID,
		DebtorID:       debtorID,
		AccountID:      accountID,
		Severity:       domain.CheckSeverity(severity),
		Description:    description,
		Details:        details,
		CreatedAt:      createdAt,
	}, nil
}

// marshalDetails converts event details to JSON bytes for JSONB storage.
// Returns nil for empty input (NULL in DB).
func marshalDetails(details map[string]any) ([]byte, error) {
	if len(details) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal details: %w", err)
	}
	return b, nil
}

func unmarshalDetails(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return m, nil
}

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
