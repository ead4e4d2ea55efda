// Package conversation drives the negotiation state machine. One ProcessTurn
// call takes an inbound debtor message through the compliance gate, the
// proposal generator, and response validation, then commits the whole turn
// atomically.
package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/adapter/generator"
	"github.com/collectaai/collecta-backend/internal/domain"
	"github.com/collectaai/collecta-backend/internal/service/payment"
	"github.com/collectaai/collecta-backend/internal/service/validator"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type conversationRepo interface {
	Create(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	GetBySession(ctx context.Context, accountID uuid.UUID, sessionID string) (domain.Conversation, error)
	Update(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, states []domain.ConversationState, limit, offset int) ([]domain.Conversation, int, error)
	AppendMessage(ctx context.Context, m domain.Message) (domain.Message, error)
	GetRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
}

type debtorRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Debtor, error)
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error)
}

type contactGate interface {
	Evaluate(ctx context.Context, debtor domain.Debtor) (domain.ContactDecision, error)
}

type proposer interface {
	Propose(ctx context.Context, tc generator.TurnContext) (domain.ProposedAction, error)
}

type retriever interface {
	Enabled() bool
	Fetch(ctx context.Context, query string) []string
}

type responseValidator interface {
	Validate(p domain.ProposedAction, vctx validator.Context) (domain.ProposedAction, []domain.ComplianceCheck)
}

type planBuilder interface {
	BuildPlan(ctx context.Context, in payment.BuildPlanInput) (*domain.PaymentPlan, error)
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

// historyWindow is how many prior messages the generator sees.
const historyWindow = 10

// Service implements the conversation state machine.
type Service struct {
	conversations conversationRepo
	debtors       debtorRepo
	accounts      accountRepo
	gate          contactGate
	generator     proposer
	retrieval     retriever
	validator     responseValidator
	plans         planBuilder
	audit         auditRecorder
	tx            txManager
	locks         *keyedMutex
	log           *slog.Logger
	now           func() time.Time
}

// NewService creates a new conversation service.
func NewService(
	log *slog.Logger,
	conversations conversationRepo,
	debtors debtorRepo,
	accounts accountRepo,
	gate contactGate,
	gen proposer,
	retrieval retriever,
	v responseValidator,
	plans planBuilder,
	audit auditRecorder,
	tx txManager,
) *Service {
	return &Service{
		conversations: conversations,
		debtors:       debtors,
		accounts:      accounts,
		gate:          gate,
		generator:     gen,
		retrieval:     retrieval,
		validator:     v,
		plans:         plans,
		audit:         audit,
		tx:            tx,
		locks:         newKeyedMutex(),
		log:           log,
		now:           time.Now,
	}
}
