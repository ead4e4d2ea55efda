//go:build e2e

package e2e_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collectaai/collecta-backend/internal/adapter/generator"
	"github.com/collectaai/collecta-backend/internal/adapter/postgres"
	accountrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/account"
	auditrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/auditevent"
	conversationrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/conversation"
	debtorrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/debtor"
	paymentrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/payment"
	planrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/plan"
	"github.com/collectaai/collecta-backend/internal/adapter/postgres/testhelper"
	"github.com/collectaai/collecta-backend/internal/adapter/retrieval"
	"github.com/collectaai/collecta-backend/internal/audit"
	"github.com/collectaai/collecta-backend/internal/domain"
	compliancesvc "github.com/collectaai/collecta-backend/internal/service/compliance"
	conversationsvc "github.com/collectaai/collecta-backend/internal/service/conversation"
	paymentsvc "github.com/collectaai/collecta-backend/internal/service/payment"
	validatorsvc "github.com/collectaai/collecta-backend/internal/service/validator"
	verificationsvc "github.com/collectaai/collecta-backend/internal/service/verification"
)

// scriptedGenerator replays a fixed sequence of proposals instead of calling
// the model. A step with Err set simulates a generation failure.
type scriptedGenerator struct {
	mu    sync.Mutex
	steps []scriptStep
}

type scriptStep struct {
	Action domain.ProposedAction
	Err    error
}

func (g *scriptedGenerator) push(steps ...scriptStep) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.steps = append(g.steps, steps...)
}

func (g *scriptedGenerator) Propose(ctx context.Context, tc generator.TurnContext) (domain.ProposedAction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.steps) == 0 {
		return domain.ProposedAction{
			Action:     domain.ActionAcknowledge,
			Message:    "Thank you for your message.",
			Confidence: 0.9,
		}, nil
	}

	step := g.steps[0]
	g.steps = g.steps[1:]
	if step.Err != nil {
		return domain.ProposedAction{}, &domain.GenerationError{Err: step.Err}
	}
	return step.Action, nil
}

// env is a fully wired backend over the shared test database with the
// generator replaced by a script.
type env struct {
	pool *pgxpool.Pool

	conversations *conversationrepo.Repo
	plans         *planrepo.Repo
	payments      *paymentrepo.Repo
	accounts      *accountrepo.Repo
	auditEvents   *auditrepo.Repo

	sink   *audit.Sink
	script *scriptedGenerator

	compliance   *compliancesvc.Service
	verification *verificationsvc.Service
	payment      *paymentsvc.Service
	conversation *conversationsvc.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tx := postgres.NewTxManager(pool)
	debtors := debtorrepo.New(pool)
	accounts := accountrepo.New(pool)
	conversations := conversationrepo.New(pool)
	plans := planrepo.New(pool)
	payments := paymentrepo.New(pool)
	auditEvents := auditrepo.New(pool)

	sink := audit.NewSink(auditEvents, log, 256, 2*time.Second)
	t.Cleanup(func() { _ = sink.Close() })

	script := &scriptedGenerator{}

	compliance := compliancesvc.NewService(log, debtors, conversations, sink, tx,
		compliancesvc.Config{
			ContactHoursStart: "00:00",
			ContactHoursEnd:   "23:59",
			MaxDailyAttempts:  100,
			MaxWeeklyAttempts: 100,
		},
	)
	verification := verificationsvc.NewService(log, conversations, debtors, accounts, sink, tx, 3)
	payment := paymentsvc.NewService(log, plans, payments, accounts, sink, tx,
		paymentsvc.Policy{
			MaxSettlementPercentage:  0.70,
			MaxInstallmentMonths:     12,
			MinimumInstallmentAmount: 25,
		},
	)
	validator := validatorsvc.NewService(log, validatorsvc.Policy{
		MaxSettlementPercentage:  0.70,
		MaxInstallmentMonths:     12,
		MinimumInstallmentAmount: 25,
	})
	retriever := retrieval.NewProvider("", 3, time.Second, log)

	conversation := conversationsvc.NewService(log, conversations, debtors, accounts,
		compliance, script, retriever, validator, payment, sink, tx)

	return &env{
		pool:          pool,
		conversations: conversations,
		plans:         plans,
		payments:      payments,
		accounts:      accounts,
		auditEvents:   auditEvents,
		sink:          sink,
		script:        script,
		compliance:    compliance,
		verification:  verification,
		payment:       payment,
		conversation:  conversation,
	}
}
