// Package conversation implements the Conversation repository using PostgreSQL.
// All queries use raw SQL; the session_data and compliance_tags columns are
// JSONB requiring custom marshal/unmarshal logic. List and count queries with
// dynamic filters are built with squirrel.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/collectaai/collecta-backend/internal/adapter/postgres"
	"github.com/collectaai/collecta-backend/internal/domain"
)

// Repo provides conversation and message persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new conversation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const conversationColumns = `id, session_id, debtor_id, account_id, state, channel, session_data,
identity_verified, verification_attempts, escalation_reason, escalation_date, assigned_agent_id,
last_activity, created_at, updated_at`

const createSQL = `
INSERT INTO conversations (id, session_id, debtor_id, account_id, state, channel, session_data,
                           last_activity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $8)
RETURNING ` + conversationColumns

const getByIDSQL = `
SELECT ` + conversationColumns + `
FROM conversations
WHERE id = $1`

const getBySessionSQL = `
SELECT ` + conversationColumns + `
FROM conversations
WHERE account_id = $1 AND session_id = $2`

const updateSQL = `
UPDATE conversations
SET state = $2,
    session_data = $3,
    identity_verified = $4,
    verification_attempts = $5,
    escalation_reason = $6,
    escalation_date = $7,
    assigned_agent_id = $8,
    last_activity = $9,
    updated_at = $10
WHERE id = $1
RETURNING ` + conversationColumns

const optOutActiveByDebtorSQL = `
UPDATE conversations
SET state = 'OPTED_OUT', last_activity = $2, updated_at = $2
WHERE debtor_id = $1 AND state NOT IN ('CLOSED', 'OPTED_OUT')`

const escalateNegotiatingByAccountSQL = `
UPDATE conversations
SET state = 'ESCALATED', escalation_reason = $2, escalation_date = $3, last_activity = $3, updated_at = $3
WHERE account_id = $1 AND state = 'ACTIVE_NEGOTIATION'`

const messageColumns = `id, conversation_id, role, content, confidence, compliance_tags, created_at`

const appendMessageSQL = `
INSERT INTO messages (id, conversation_id, role, content, confidence, compliance_tags, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + messageColumns

// Last N messages in chronological order.
const recentMessagesSQL = `
SELECT ` + messageColumns + `
FROM (
    SELECT ` + messageColumns + `
    FROM messages
    WHERE conversation_id = $1
    ORDER BY created_at DESC, id DESC
    LIMIT $2
) recent
ORDER BY created_at, id`

const listMessagesSQL = `
SELECT ` + messageColumns + `
FROM messages
WHERE conversation_id = $1
ORDER BY created_at, id`

// ---------------------------------------------------------------------------
// Conversation operations
// ---------------------------------------------------------------------------

// Create inserts a new conversation and returns the persisted domain.Conversation.
// A unique constraint on (account_id, session_id) makes concurrent creation of
// the same session surface as domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sessionData, err := marshalSessionData(c.SessionData)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", c.ID, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, createSQL,
		c.ID, c.SessionID, c.DebtorID, c.AccountID,
		string(c.State), string(c.Channel), sessionData, now,
	)

	created, err := scanConversation(row)
	if err != nil {
		return domain.Conversation{}, mapError(err, "conversation", c.ID)
	}

	return created, nil
}

// GetByID returns a conversation by primary key.
// Returns domain.ErrNotFound if the conversation does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, id)

	c, err := scanConversation(row)
	if err != nil {
		return domain.Conversation{}, mapError(err, "conversation", id)
	}

	return c, nil
}

// GetBySession returns the conversation for an account's session.
// Returns domain.ErrNotFound if no such session exists.
func (r *Repo) GetBySession(ctx context.Context, accountID uuid.UUID, sessionID string) (domain.Conversation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getBySessionSQL, accountID, sessionID)

	c, err := scanConversation(row)
	if err != nil {
		return domain.Conversation{}, mapError(err, "conversation", uuid.Nil)
	}

	return c, nil
}

// Update persists the mutable fields of a conversation and returns the stored
// row. The caller is responsible for state machine checks; the repository
// stores whatever it is given.
func (r *Repo) Update(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sessionData, err := marshalSessionData(c.SessionData)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", c.ID, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, updateSQL,
		c.ID, string(c.State), sessionData,
		c.IdentityVerified, c.VerificationAttempts,
		c.EscalationReason, c.EscalationDate, c.AssignedAgentID,
		c.LastActivity.UTC().Truncate(time.Microsecond), now,
	)

	updated, err := scanConversation(row)
	if err != nil {
		return domain.Conversation{}, mapError(err, "conversation", c.ID)
	}

	return updated, nil
}

// OptOutActiveByDebtor moves every non-terminal conversation of a debtor to
// OPTED_OUT. Returns the number of conversations affected.
func (r *Repo) OptOutActiveByDebtor(ctx context.Context, debtorID uuid.UUID, at time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, optOutActiveByDebtorSQL, debtorID, at.UTC().Truncate(time.Microsecond))
	if err != nil {
		return 0, mapError(err, "conversation", uuid.Nil)
	}

	return int(ct.RowsAffected()), nil
}

// EscalateNegotiatingByAccount escalates every ACTIVE_NEGOTIATION conversation
// of an account with the given reason. Returns the number affected.
func (r *Repo) EscalateNegotiatingByAccount(ctx context.Context, accountID uuid.UUID, reason string, at time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, escalateNegotiatingByAccountSQL, accountID, reason, at.UTC().Truncate(time.Microsecond))
	if err != nil {
		return 0, mapError(err, "conversation", uuid.Nil)
	}

	return int(ct.RowsAffected()), nil
}

// CountOpenedSince counts conversations opened for a debtor at or after the
// given instant. Used by the contact frequency checks.
func (r *Repo) CountOpenedSince(ctx context.Context, debtorID uuid.UUID, since time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("count(*)").
		From("conversations").
		Where(sq.Eq{"debtor_id": debtorID}).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count opened since: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count conversations opened since: %w", err)
	}

	return total, nil
}

// ListByAccount returns conversations for an account ordered by created_at
// DESC with pagination. A non-empty states slice filters by state.
// Returns conversations, total count, and error.
func (r *Repo) ListByAccount(ctx context.Context, accountID uuid.UUID, states []domain.ConversationState, limit, offset int) ([]domain.Conversation, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	where := sq.And{sq.Eq{"account_id": accountID}}
	if len(states) > 0 {
		raw := make([]string, len(states))
		for i, s := range states {
			raw[i] = string(s)
		}
		where = append(where, sq.Eq{"state": raw})
	}

	countQuery, countArgs, err := r.sb.
		Select("count(*)").
		From("conversations").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count by account: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations by account: %w", err)
	}

	listQuery, listArgs, err := r.sb.
		Select(conversationColumns).
		From("conversations").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list by account: %w", err)
	}

	rows, err := querier.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations by account: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list conversations by account: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list conversations by account: %w", err)
	}

	return conversations, total, nil
}

// ---------------------------------------------------------------------------
// Message operations
// ---------------------------------------------------------------------------

// AppendMessage inserts a message into a conversation's history and returns
// the persisted domain.Message. History is append-only; there are no update
// or delete operations.
func (r *Repo) AppendMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tags, err := marshalTags(m.ComplianceTags)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message %s: %w", m.ID, err)
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, appendMessageSQL,
		m.ID, m.ConversationID, string(m.Role), m.Content, m.Confidence, tags, createdAt,
	)

	created, err := scanMessage(row)
	if err != nil {
		return domain.Message{}, mapError(err, "message", m.ID)
	}

	return created, nil
}

// GetRecentMessages returns the last `limit` messages of a conversation in
// chronological order.
func (r *Repo) GetRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, recentMessagesSQL, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListMessages returns the full message history of a conversation in
// chronological order.
func (r *Repo) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listMessagesSQL, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var (
		id                   uuid.UUID
		sessionID            string
		debtorID             uuid.UUID
		accountID            uuid.UUID
		state                string
		channel              string
		sessionDataJSON      []byte
		identityVerified     bool
		verificationAttempts int
		escalationReason     *string
		escalationDate       *time.Time
		assignedAgentID      *string
		lastActivity         time.Time
		createdAt            time.Time
		updatedAt            time.Time
	)

	if err := row.Scan(&id, &sessionID, &debtorID, &accountID, &state, &channel,
		&sessionDataJSON, &identityVerified, &verificationAttempts,
		&escalationReason, &escalationDate, &assignedAgentID,
		&lastActivity, &createdAt, &updatedAt); err != nil {
		return domain.Conversation{}, err
	}

	sessionData, err := unmarshalSessionData(sessionDataJSON)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", id, err)
	}

	return domain.Conversation{
		ID:                   id,
		SessionID:            sessionID,
		DebtorID:             debtorID,
		AccountID:            accountID,
		State:                domain.ConversationState(state),
		Channel:              domain.Channel(channel),
		SessionData:          sessionData,
		IdentityVerified:     identityVerified,
		VerificationAttempts: verificationAttempts,
		EscalationReason:     escalationReason,
		EscalationDate:       escalationDate,
		AssignedAgentID:      assignedAgentID,
		LastActivity:         lastActivity,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}, nil
}

func scanMessage(row pgx.Row) (domain.Message, error) {
	var (
		id             uuid.UUID
		conversationID uuid.UUID
		role           string
		content        string
		confidence     *float64
		tagsJSON       []byte
		createdAt      time.Time
	)

	if err := row.Scan(&id, &conversationID, &role, &content, &confidence, &tagsJSON, &createdAt); err != nil {
		return domain.Message{}, err
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message %s: %w", id, err)
	}

	return domain.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           domain.MessageRole(role),
		Content:        content,
		Confidence:     confidence,
		ComplianceTags: tags,
		CreatedAt:      createdAt,
	}, nil
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// ---------------------------------------------------------------------------
// JSONB helpers
// ---------------------------------------------------------------------------

// marshalSessionData converts session data to JSON bytes for JSONB storage.
// Returns nil for empty input (NULL in DB).
func marshalSessionData(data map[string]any) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal session data: %w", err)
	}
	return b, nil
}

// unmarshalSessionData converts JSON bytes from JSONB storage back to a map.
// Returns nil for nil/empty input (NULL in DB).
func unmarshalSessionData(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal session data: %w", err)
	}
	return m, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal compliance tags: %w", err)
	}
	return b, nil
}

func unmarshalTags(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("unmarshal compliance tags: %w", err)
	}
	return tags, nil
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

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
