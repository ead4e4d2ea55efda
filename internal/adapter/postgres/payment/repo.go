// Package payment implements the Payment repository using PostgreSQL.
// Payments are append-only records of money already moved elsewhere.
package payment

import (
	"context"
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

// Repo provides payment record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new payment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const paymentColumns = `id, account_id, amount, method, description, processed_at, created_at`

const createSQL = `
INSERT INTO payments (id, account_id, amount, method, description, processed_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + paymentColumns

const listByAccountSQL = `
SELECT ` + paymentColumns + `
FROM payments
WHERE account_id = $1
ORDER BY processed_at DESC
LIMIT $2 OFFSET $3`

// Create inserts a payment record and returns the persisted domain.Payment.
func (r *Repo) Create(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	processedAt := p.ProcessedAt
	if processedAt.IsZero() {
		processedAt = now
	}

	row := querier.QueryRow(ctx, createSQL,
		p.ID, p.AccountID, p.Amount, p.Method, p.Description,
		processedAt.UTC().Truncate(time.Microsecond), now,
	)

	created, err := scanPayment(row)
	if err != nil {
		return domain.Payment{}, mapError(err, "payment", p.ID)
	}

	return created, nil
}

// ListByAccount returns payments for an account, newest first.
func (r *Repo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByAccountSQL, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments by account: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("list payments by account: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments by account: %w", err)
	}

	return payments, nil
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var (
		id          uuid.UUID
		accountID   uuid.UUID
		amount      float64
		method      string
		description string
		processedAt time.Time
		createdAt   time.Time
	)

	if err := row.Scan(&id, &accountID, &amount, &method, &description, &processedAt, &createdAt); err != nil {
		return domain.Payment{}, err
	}

	return domain.Payment{
		ID:          id,
		AccountID:   accountID,
		Amount:      amount,
		Method:      method,
		Description: description,
		ProcessedAt: processedAt,
		CreatedAt:   createdAt,
	}, nil
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
