// Package compliance implements the contact compliance gate and the
// regulatory request handlers (opt-out, debt validation). The gate runs
// before any message is processed; a blocked contact never reaches the
// generator.
package compliance

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

type debtorRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Debtor, error)
	SetOptOut(ctx context.Context, id uuid.UUID, at time.Time) (domain.Debtor, error)
}

type conversationRepo interface {
	CountOpenedSince(ctx context.Context, debtorID uuid.UUID, since time.Time) (int, error)
	OptOutActiveByDebtor(ctx context.Context, debtorID uuid.UUID, at time.Time) (int, error)
	EscalateNegotiatingByAccount(ctx context.Context, accountID uuid.UUID, reason string, at time.Time) (int, error)
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

// Config holds the contact rules. Per-debtor contact hours override the
// configured defaults when set.
type Config struct {
	ContactHoursStart string
	ContactHoursEnd   string
	MaxDailyAttempts  int
	MaxWeeklyAttempts int
	ProhibitedDays    []time.Weekday
}

// Service implements the compliance business logic.
type Service struct {
	debtors       debtorRepo
	conversations conversationRepo
	audit         auditRecorder
	tx            txManager
	cfg           Config
	log           *slog.Logger
	now           func() time.Time
}

// NewService creates a new compliance service.
func NewService(
	log *slog.Logger,
	debtors debtorRepo,
	conversations conversationRepo,
	audit auditRecorder,
	tx txManager,
	cfg Config,
) *Service {
	return &Service{
		debtors:       debtors,
		conversations: conversations,
		audit:         audit,
		tx:            tx,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}
