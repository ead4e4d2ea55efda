package verification

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

type conversationRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	UpdateFunc  func(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
}

func (m *conversationRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *conversationRepoMock) Update(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	return m.UpdateFunc(ctx, c)
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
