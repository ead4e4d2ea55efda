// Package verification implements debtor identity verification. A debtor must
// verify before any account details may be discussed; exhausting the allowed
// attempts escalates the conversation to a human agent.
package verification

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

type conversationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	Update(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
}

type debtorRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Debtor, error)
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error)
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

// Service implements the verification business logic.
type Service struct {
	conversations conversationRepo
	debtors       debtorRepo
	accounts      accountRepo
	audit         auditRecorder
	tx            txManager
	maxAttempts   int
	log           *slog.Logger
	now           func() time.Time
}

// NewService creates a new verification service.
func NewService(
	log *slog.Logger,
	conversations conversationRepo,
	debtors debtorRepo,
	accounts accountRepo,
	audit auditRecorder,
	tx txManager,
	maxAttempts int,
) *Service {
	return &Service{
		conversations: conversations,
		debtors:       debtors,
		accounts:      accounts,
		audit:         audit,
		tx:            tx,
		maxAttempts:   maxAttempts,
		log:           log,
		now:           time.Now,
	}
}
