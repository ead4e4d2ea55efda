// Package plan implements the PaymentPlan repository using PostgreSQL.
// A plan and its installment schedule are written together; schedule inserts
// are built as a single multi-row statement with squirrel.
package plan

import (
	"context"
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

// Repo provides payment plan persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new plan repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const planColumns = `id, account_id, conversation_id, kind, total_amount, installment_amount,
number_of_installments, first_payment_date, frequency, status, acceptance_date, completion_date,
created_at, updated_at`

const createPlanSQL = `
INSERT INTO payment_plans (id, account_id, conversation_id, kind, total_amount, installment_amount,
                           number_of_installments, first_payment_date, frequency, status,
                           created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
RETURNING ` + planColumns

const getByIDSQL = `
SELECT ` + planColumns + `
FROM payment_plans
WHERE id = $1`

const getLatestByConversationSQL = `
SELECT ` + planColumns + `
FROM payment_plans
WHERE conversation_id = $1
ORDER BY created_at DESC
LIMIT 1`

const setStatusSQL = `
UPDATE payment_plans
SET status = $2,
    acceptance_date = CASE WHEN $2 = 'accepted' THEN $3 ELSE acceptance_date END,
    completion_date = CASE WHEN $2 = 'completed' THEN $3 ELSE completion_date END,
    updated_at = $3
WHERE id = $1
RETURNING ` + planColumns

const scheduleColumns = `id, plan_id, installment_number, due_date, amount, status, paid_date, paid_amount, created_at`

const getScheduleSQL = `
SELECT ` + scheduleColumns + `
FROM scheduled_payments
WHERE plan_id = $1
ORDER BY installment_number`

const markInstallmentPaidSQL = `
UPDATE scheduled_payments
SET status = 'paid', paid_date = $3, paid_amount = $4
WHERE plan_id = $1 AND installment_number = $2 AND status = 'pending'`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a plan together with its installment schedule and returns the
// persisted domain.PaymentPlan. Meant to run inside a transaction so a failed
// schedule insert rolls the plan back too.
func (r *Repo) Create(ctx context.Context, p domain.PaymentPlan) (domain.PaymentPlan, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, createPlanSQL,
		p.ID, p.AccountID, p.ConversationID, string(p.Kind),
		p.TotalAmount, p.InstallmentAmount, p.NumberOfInstallments,
		p.FirstPaymentDate.UTC().Truncate(time.Microsecond),
		string(p.Frequency), string(p.Status), now,
	)

	created, err := scanPlan(row)
	if err != nil {
		return domain.PaymentPlan{}, mapError(err, "payment_plan", p.ID)
	}

	if len(p.Schedule) > 0 {
		insert := r.sb.
			Insert("scheduled_payments").
			Columns("id", "plan_id", "installment_number", "due_date", "amount", "status", "created_at")
		for _, s := range p.Schedule {
			id := s.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			status := s.Status
			if status == "" {
				status = "pending"
			}
			insert = insert.Values(id, created.ID, s.InstallmentNumber,
				s.DueDate.UTC().Truncate(time.Microsecond), s.Amount, status, now)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return domain.PaymentPlan{}, fmt.Errorf("build schedule insert: %w", err)
		}
		if _, err := querier.Exec(ctx, query, args...); err != nil {
			return domain.PaymentPlan{}, mapError(err, "payment_plan", p.ID)
		}
	}

	schedule, err := r.getSchedule(ctx, querier, created.ID)
	if err != nil {
		return domain.PaymentPlan{}, err
	}
	created.Schedule = schedule

	return created, nil
}

// SetStatus moves a plan to the given status. Accepting stamps the acceptance
// date, completing stamps the completion date.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.PlanStatus, at time.Time) (domain.PaymentPlan, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	at = at.UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, setStatusSQL, id, string(status), at)

	p, err := scanPlan(row)
	if err != nil {
		return domain.PaymentPlan{}, mapError(err, "payment_plan", id)
	}

	schedule, err := r.getSchedule(ctx, querier, id)
	if err != nil {
		return domain.PaymentPlan{}, err
	}
	p.Schedule = schedule

	return p, nil
}

// MarkInstallmentPaid records a payment against one pending installment.
// Returns domain.ErrNotFound if the installment does not exist or is not pending.
func (r *Repo) MarkInstallmentPaid(ctx context.Context, planID uuid.UUID, installmentNumber int, amount float64, at time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	at = at.UTC().Truncate(time.Microsecond)

	ct, err := querier.Exec(ctx, markInstallmentPaidSQL, planID, installmentNumber, at, amount)
	if err != nil {
		return mapError(err, "payment_plan", planID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("payment_plan %s installment %d: %w", planID, installmentNumber, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a plan with its full schedule.
// Returns domain.ErrNotFound if the plan does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.PaymentPlan, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, id)

	p, err := scanPlan(row)
	if err != nil {
		return domain.PaymentPlan{}, mapError(err, "payment_plan", id)
	}

	schedule, err := r.getSchedule(ctx, querier, id)
	if err != nil {
		return domain.PaymentPlan{}, err
	}
	p.Schedule = schedule

	return p, nil
}

// GetLatestByConversation returns the most recently created plan of a
// conversation. Returns domain.ErrNotFound if the conversation has no plan.
func (r *Repo) GetLatestByConversation(ctx context.Context, conversationID uuid.UUID) (domain.PaymentPlan, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getLatestByConversationSQL, conversationID)

	p, err := scanPlan(row)
	if err != nil {
		return domain.PaymentPlan{}, mapError(err, "payment_plan", uuid.Nil)
	}

	schedule, err := r.getSchedule(ctx, querier, p.ID)
	if err != nil {
		return domain.PaymentPlan{}, err
	}
	p.Schedule = schedule

	return p, nil
}

// ListByAccount returns plans for an account ordered by created_at DESC with
// pagination. A non-empty statuses slice filters by status. Schedules are not
// loaded for list results.
func (r *Repo) ListByAccount(ctx context.Context, accountID uuid.UUID, statuses []domain.PlanStatus, limit, offset int) ([]domain.PaymentPlan, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	where := sq.And{sq.Eq{"account_id": accountID}}
	if len(statuses) > 0 {
		raw := make([]string, len(statuses))
		for i, s := range statuses {
			raw[i] = string(s)
		}
		where = append(where, sq.Eq{"status": raw})
	}

	countQuery, countArgs, err := r.sb.
		Select("count(*)").
		From("payment_plans").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count plans by account: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count plans by account: %w", err)
	}

	listQuery, listArgs, err := r.sb.
		Select(planColumns).
		From("payment_plans").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list plans by account: %w", err)
	}

	rows, err := querier.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list plans by account: %w", err)
	}
	defer rows.Close()

	var plans []domain.PaymentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list plans by account: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list plans by account: %w", err)
	}

	return plans, total, nil
}

func (r *Repo) getSchedule(ctx context.Context, querier postgres.Querier, planID uuid.UUID) ([]domain.ScheduledPayment, error) {
	rows, err := querier.Query(ctx, getScheduleSQL, planID)
	if err != nil {
		return nil, fmt.Errorf("get plan schedule: %w", err)
	}
	defer rows.Close()

	var schedule []domain.ScheduledPayment
	for rows.Next() {
		s, err := scanScheduledPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("get plan schedule: %w", err)
		}
		schedule = append(schedule, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get plan schedule: %w", err)
	}

	return schedule, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanPlan(row pgx.Row) (domain.PaymentPlan, error) {
	var (
		id                   uuid.UUID
		accountID            uuid.UUID
		conversationID       uuid.UUID
		kind                 string
		totalAmount          float64
		installmentAmount    float64
		numberOfInstallments int
		firstPaymentDate     time.Time
		frequency            string
		status               string
		acceptanceDate       *time.Time
		completionDate       *time.Time
		createdAt            time.Time
		updatedAt            time.Time
	)

	if err := row.Scan(&id, &accountID, &conversationID, &kind, &totalAmount,
		&installmentAmount, &numberOfInstallments, &firstPaymentDate, &frequency,
		&status, &acceptanceDate, &completionDate, &createdAt, &updatedAt); err != nil {
		return domain.PaymentPlan{}, err
	}

	return domain.PaymentPlan{
		ID:                   id,
		AccountID:            accountID,
		ConversationID:       conversationID,
		Kind:                 domain.PlanKind(kind),
		TotalAmount:          totalAmount,
		InstallmentAmount:    installmentAmount,
		NumberOfInstallments: numberOfInstallments,
		FirstPaymentDate:     firstPaymentDate,
		Frequency:            domain.PaymentFrequency(frequency),
		Status:               domain.PlanStatus(status),
		AcceptanceDate:       acceptanceDate,
		CompletionDate:       completionDate,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}, nil
}

func scanScheduledPayment(row pgx.Row) (domain.ScheduledPayment, error) {
	var (
		id                uuid.UUID
		planID            uuid.UUID
		installmentNumber int
		dueDate           time.Time
		amount            float64
		status            string
		paidDate          *time.Time
		paidAmount        *float64
		createdAt         time.Time
	)

	if err := row.Scan(&id, &planID, &installmentNumber, &dueDate, &amount,
		&status, &paidDate, &paidAmount, &createdAt); err != nil {
		return domain.ScheduledPayment{}, err
	}

	return domain.ScheduledPayment{
		ID:                id,
		PlanID:            planID,
		InstallmentNumber: installmentNumber,
		DueDate:           dueDate,
		Amount:            amount,
		Status:            status,
		PaidDate:          paidDate,
		PaidAmount:        paidAmount,
		CreatedAt:         createdAt,
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
