// Package payment builds payment plans with their installment schedules and
// records incoming payments against accounts. No money moves through this
// system; payments are facts reported by an external processor.
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type planRepo interface {
	Create(ctx context.Context, p domain.PaymentPlan) (domain.PaymentPlan, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.PaymentPlan, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.PlanStatus, at time.Time) (domain.PaymentPlan, error)
}

type paymentRepo interface {
	Create(ctx context.Context, p domain.Payment) (domain.Payment, error)
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error)
	ApplyPayment(ctx context.Context, id uuid.UUID, amount float64, at time.Time) (domain.Account, error)
}

type auditRecorder interface {
	Record(e domain.AuditEvent)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Policy holds the payment plan ceilings.
type Policy struct {
	MaxSettlementPercentage  float64
	MaxInstallmentMonths     int
	MinimumInstallmentAmount float64
}

// Service implements plan building and payment recording.
type Service struct {
	plans    planRepo
	payments paymentRepo
	accounts accountRepo
	audit    auditRecorder
	tx       txManager
	policy   Policy
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new payment service.
func NewService(
	log *slog.Logger,
	plans planRepo,
	payments paymentRepo,
	accounts accountRepo,
	audit auditRecorder,
	tx txManager,
	policy Policy,
) *Service {
	return &Service{
		plans:    plans,
		payments: payments,
		accounts: accounts,
		audit:    audit,
		tx:       tx,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}
