package conversation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/adapter/generator"
	"github.com/collectaai/collecta-backend/internal/domain"
	"github.com/collectaai/collecta-backend/internal/service/payment"
	"github.com/collectaai/collecta-backend/internal/service/validator"
)

type conversationRepoMock struct {
	CreateFunc            func(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	GetBySessionFunc      func(ctx context.Context, accountID uuid.UUID, sessionID string) (domain.Conversation, error)
	UpdateFunc            func(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	ListByAccountFunc     func(ctx context.Context, accountID uuid.UUID, states []domain.ConversationState, limit, offset int) ([]domain.Conversation, int, error)
	AppendMessageFunc     func(ctx context.Context, m domain.Message) (domain.Message, error)
	GetRecentMessagesFunc func(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error)
	ListMessagesFunc      func(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
}

func (m *conversationRepoMock) Create(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	return m.CreateFunc(ctx, c)
}

func (m *conversationRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *conversationRepoMock) GetBySession(ctx context.Context, accountID uuid.UUID, sessionID string) (domain.Conversation, error) {
	return m.GetBySessionFunc(ctx, accountID, sessionID)
}

func (m *conversationRepoMock) Update(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	return m.UpdateFunc(ctx, c)
}

func (m *conversationRepoMock) ListByAccount(ctx context.Context, accountID uuid.UUID, states []domain.ConversationState, limit, offset int) ([]domain.Conversation, int, error) {
	return m.ListByAccountFunc(ctx, accountID, states, limit, offset)
}

func (m *conversationRepoMock) AppendMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	return m.AppendMessageFunc(ctx, msg)
}

func (m *conversationRepoMock) GetRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	return m.GetRecentMessagesFunc(ctx, conversationID, limit)
}

func (m *conversationRepoMock) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	return m.ListMessagesFunc(ctx, conversationID)
}

type debtorRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (domain.Debtor, error)
}

func (m *debtorRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Debtor, error) {
	return m.GetByIDFunc(ctx, id)
}

type accountRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (domain.Account, error)
}

func (m *accountRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return m.GetByIDFunc(ctx, id)
}

type contactGateMock struct {
	EvaluateFunc func(ctx context.Context, debtor domain.Debtor) (domain.ContactDecision, error)
}

func (m *contactGateMock) Evaluate(ctx context.Context, debtor domain.Debtor) (domain.ContactDecision, error) {
	return m.EvaluateFunc(ctx, debtor)
}

type proposerMock struct {
	ProposeFunc func(ctx context.Context, tc generator.TurnContext) (domain.ProposedAction, error)
}

func (m *proposerMock) Propose(ctx context.Context, tc generator.TurnContext) (domain.ProposedAction, error) {
	return m.ProposeFunc(ctx, tc)
}

// retrieverMock serves fixed snippets; a nil slice means disabled.
type retrieverMock struct {
	snippets []string
}

func (m *retrieverMock) Enabled() bool { return m.snippets != nil }

func (m *retrieverMock) Fetch(ctx context.Context, query string) []string { return m.snippets }

type planBuilderMock struct {
	BuildPlanFunc func(ctx context.Context, in payment.BuildPlanInput) (*domain.PaymentPlan, error)
}

func (m *planBuilderMock) BuildPlan(ctx context.Context, in payment.BuildPlanInput) (*domain.PaymentPlan, error) {
	return m.BuildPlanFunc(ctx, in)
}

// passthroughValidator returns the proposal untouched.
type passthroughValidator struct{}

func (passthroughValidator) Validate(p domain.ProposedAction, vctx validator.Context) (domain.ProposedAction, []domain.ComplianceCheck) {
	return p, nil
}

// auditRecorderMock collects recorded events.
type auditRecorderMock struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (m *auditRecorderMock) Record(e domain.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *auditRecorderMock) recorded() []domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEvent{}, m.events...)
}

// txManagerMock runs the function directly, no transaction.
type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
