// Package account implements the Account repository using PostgreSQL.
package account

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

// Repo provides debt account persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new account repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const accountColumns = `id, debtor_id, account_number, principal_amount, current_balance, currency,
origination_date, due_date, days_overdue, last_payment_date, last_payment_amount, status,
created_at, updated_at`

const createSQL = `
INSERT INTO accounts (id, debtor_id, account_number, principal_amount, current_balance, currency,
                      origination_date, due_date, days_overdue, last_payment_date, last_payment_amount,
                      status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
RETURNING ` + accountColumns

const getByIDSQL = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1`

const getByDebtorIDSQL = `
SELECT ` + accountColumns + `
FROM accounts
WHERE debtor_id = $1
ORDER BY created_at`

const applyPaymentSQL = `
UPDATE accounts
SET current_balance = current_balance - $2,
    last_payment_date = $3,
    last_payment_amount = $2,
    status = CASE WHEN current_balance - $2 <= 0 THEN 'paid' ELSE status END,
    updated_at = $3
WHERE id = $1
RETURNING ` + accountColumns

const setStatusSQL = `
UPDATE accounts
SET status = $2, updated_at = $3
WHERE id = $1
RETURNING ` + accountColumns

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Create inserts a new account and returns the persisted domain.Account.
func (r *Repo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, createSQL,
		a.ID, a.DebtorID, a.AccountNumber, a.PrincipalAmount, a.CurrentBalance,
		a.Currency, a.OriginationDate, a.DueDate, a.DaysOverdue,
		a.LastPaymentDate, a.LastPaymentAmount, string(a.Status), now,
	)

	created, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapError(err, "account", a.ID)
	}

	return created, nil
}

// GetByID returns an account by primary key.
// Returns domain.ErrNotFound if the account does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, id)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapError(err, "account", id)
	}

	return a, nil
}

// GetByDebtorID returns all accounts belonging to a debtor, oldest first.
func (r *Repo) GetByDebtorID(ctx context.Context, debtorID uuid.UUID) ([]domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByDebtorIDSQL, debtorID)
	if err != nil {
		return nil, fmt.Errorf("get accounts by debtor_id: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("get accounts by debtor_id: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get accounts by debtor_id: %w", err)
	}

	return accounts, nil
}

// ApplyPayment reduces the balance by amount and records it as the last
// payment. When the balance reaches zero the account flips to paid.
// Returns the updated account.
func (r *Repo) ApplyPayment(ctx context.Context, id uuid.UUID, amount float64, at time.Time) (domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	at = at.UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, applyPaymentSQL, id, amount, at)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapError(err, "account", id)
	}

	return a, nil
}

// SetStatus updates the collection status of an account.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) (domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, setStatusSQL, id, string(status), now)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapError(err, "account", id)
	}

	return a, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		id                uuid.UUID
		debtorID          uuid.UUID
		accountNumber     string
		principalAmount   float64
		currentBalance    float64
		currency          string
		originationDate   time.Time
		dueDate           time.Time
		daysOverdue       int
		lastPaymentDate   *time.Time
		lastPaymentAmount float64
		status            string
		createdAt         time.Time
		updatedAt         time.Time
	)

	if err := row.Scan(&id, &debtorID, &accountNumber, &principalAmount, &currentBalance,
		&currency, &originationDate, &dueDate, &daysOverdue, &lastPaymentDate,
		&lastPaymentAmount, &status, &createdAt, &updatedAt); err != nil {
		return domain.Account{}, err
	}

	return domain.Account{
		ID:                id,
		DebtorID:          debtorID,
		AccountNumber:     accountNumber,
		PrincipalAmount:   principalAmount,
		CurrentBalance:    currentBalance,
		Currency:          currency,
		OriginationDate:   originationDate,
		DueDate:           dueDate,
		DaysOverdue:       daysOverdue,
		LastPaymentDate:   lastPaymentDate,
		LastPaymentAmount: lastPaymentAmount,
		Status:            domain.AccountStatus(status),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
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
