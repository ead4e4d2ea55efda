// Package debtor implements the Debtor repository using PostgreSQL.
package debtor

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

// Repo provides debtor persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new debtor repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const debtorColumns = `id, name, email, phone, id_last_four, consent_status, consent_date,
opt_out_date, contact_hours_start, contact_hours_end, timezone, preferred_channel,
created_at, updated_at`

const createSQL = `
INSERT INTO debtors (id, name, email, phone, id_last_four, consent_status, consent_date,
                     contact_hours_start, contact_hours_end, timezone, preferred_channel,
                     created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
RETURNING ` + debtorColumns

const getByIDSQL = `
SELECT ` + debtorColumns + `
FROM debtors
WHERE id = $1`

const setOptOutSQL = `
UPDATE debtors
SET opt_out_date = $2, consent_status = $3, updated_at = $2
WHERE id = $1 AND opt_out_date IS NULL
RETURNING ` + debtorColumns

const setConsentSQL = `
UPDATE debtors
SET consent_status = $2, consent_date = $3, updated_at = $3
WHERE id = $1
RETURNING ` + debtorColumns

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Create inserts a new debtor and returns the persisted domain.Debtor.
func (r *Repo) Create(ctx context.Context, d domain.Debtor) (domain.Debtor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, createSQL,
		d.ID, d.Name, d.Email, d.Phone, d.IDLastFour,
		string(d.ConsentStatus), d.ConsentDate,
		d.ContactHoursStart, d.ContactHoursEnd, d.Timezone,
		string(d.PreferredChannel), now,
	)

	created, err := scanDebtor(row)
	if err != nil {
		return domain.Debtor{}, mapError(err, "debtor", d.ID)
	}

	return created, nil
}

// GetByID returns a debtor by primary key.
// Returns domain.ErrNotFound if the debtor does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Debtor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, id)

	d, err := scanDebtor(row)
	if err != nil {
		return domain.Debtor{}, mapError(err, "debtor", id)
	}

	return d, nil
}

// SetOptOut records an opt-out at the given time and revokes consent.
// The opt-out date is write-once: a second call returns domain.ErrNotFound
// because the row no longer matches, leaving the original date intact.
func (r *Repo) SetOptOut(ctx context.Context, id uuid.UUID, at time.Time) (domain.Debtor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	at = at.UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, setOptOutSQL, id, at, string(domain.ConsentRevoked))

	d, err := scanDebtor(row)
	if err != nil {
		return domain.Debtor{}, mapError(err, "debtor", id)
	}

	return d, nil
}

// SetConsent updates the consent status and stamps the consent date.
func (r *Repo) SetConsent(ctx context.Context, id uuid.UUID, status domain.ConsentStatus, at time.Time) (domain.Debtor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	at = at.UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, setConsentSQL, id, string(status), at)

	d, err := scanDebtor(row)
	if err != nil {
		return domain.Debtor{}, mapError(err, "debtor", id)
	}

	return d, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanDebtor(row pgx.Row) (domain.Debtor, error) {
	var (
		d                uuid.UUID
		name             string
		email            string
		phone            string
		idLastFour       string
		consentStatus    string
		consentDate      *time.Time
		optOutDate       *time.Time
		hoursStart       string
		hoursEnd         string
		timezone         string
		preferredChannel string
		createdAt        time.Time
		updatedAt        time.Time
	)

	if err := row.Scan(&d, &name, &email, &phone, &idLastFour, &consentStatus,
		&consentDate, &optOutDate, &hoursStart, &hoursEnd, &timezone,
		&preferredChannel, &createdAt, &updatedAt); err != nil {
		return domain.Debtor{}, err
	}

	return domain.Debtor{
		ID:                d,
		Name:              name,
		Email:             email,
		Phone:             phone,
		IDLastFour:        idLastFour,
		ConsentStatus:     domain.ConsentStatus(consentStatus),
		ConsentDate:       consentDate,
		OptOutDate:        optOutDate,
		ContactHoursStart: hoursStart,
		ContactHoursEnd:   hoursEnd,
		Timezone:          timezone,
		PreferredChannel:  domain.Channel(preferredChannel),
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
