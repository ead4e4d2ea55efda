package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

type planRepoMock struct {
	CreateFunc    func(ctx context.Context, p domain.PaymentPlan) (domain.PaymentPlan, error)
	GetByIDFunc   func(ctx context.Context, id uuid.UUID) (domain.PaymentPlan, error)
	SetStatusFunc func(ctx context.Context, id uuid.UUID, status domain.PlanStatus, at time.Time) (domain.PaymentPlan, error)
}

func (m *planRepoMock) Create(ctx context.Context, p domain.PaymentPlan) (domain.PaymentPlan, error) {
	return m.CreateFunc(ctx, p)
}

func (m *planRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.PaymentPlan, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *planRepoMock) SetStatus(ctx context.Context, id uuid.UUID, status domain.PlanStatus, at time.Time) (domain.PaymentPlan, error) {
	return m.SetStatusFunc(ctx, id, status, at)
}

type paymentRepoMock struct {
	CreateFunc func(ctx context.Context, p domain.Payment) (domain.Payment, error)
}

func (m *paymentRepoMock) Create(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	return m.CreateFunc(ctx, p)
}

type accountRepoMock struct {
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (domain.Account, error)
	ApplyPaymentFunc func(ctx context.Context, id uuid.UUID, amount float64, at time.Time) (domain.Account, error)
}

func (m *accountRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *accountRepoMock) ApplyPayment(ctx context.Context, id uuid.UUID, amount float64, at time.Time) (domain.Account, error) {
	return m.ApplyPaymentFunc(ctx, id, amount, at)
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
