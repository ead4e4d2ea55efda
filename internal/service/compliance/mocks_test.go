package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

type debtorRepoMock struct {
	GetByIDFunc   func(ctx context.Context, id uuid.UUID) (domain.Debtor, error)
	SetOptOutFunc func(ctx context.Context, id uuid.UUID, at time.Time) (domain.Debtor, error)
}

func (m *debtorRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Debtor, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *debtorRepoMock) SetOptOut(ctx context.Context, id uuid.UUID, at time.Time) (domain.Debtor, error) {
	return m.SetOptOutFunc(ctx, id, at)
}

type conversationRepoMock struct {
	CountOpenedSinceFunc             func(ctx context.Context, debtorID uuid.UUID, since time.Time) (int, error)
	OptOutActiveByDebtorFunc         func(ctx context.Context, debtorID uuid.UUID, at time.Time) (int, error)
	EscalateNegotiatingByAccountFunc func(ctx context.Context, accountID uuid.UUID, reason string, at time.Time) (int, error)
}

func (m *conversationRepoMock) CountOpenedSince(ctx context.Context, debtorID uuid.UUID, since time.Time) (int, error) {
	return m.CountOpenedSinceFunc(ctx, debtorID, since)
}

func (m *conversationRepoMock) OptOutActiveByDebtor(ctx context.Context, debtorID uuid.UUID, at time.Time) (int, error) {
	return m.OptOutActiveByDebtorFunc(ctx, debtorID, at)
}

func (m *conversationRepoMock) EscalateNegotiatingByAccount(ctx context.Context, accountID uuid.UUID, reason string, at time.Time) (int, error) {
	return m.EscalateNegotiatingByAccountFunc(ctx, accountID, reason, at)
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
