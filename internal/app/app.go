package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collectaai/collecta-backend/internal/adapter/generator"
	"github.com/collectaai/collecta-backend/internal/adapter/postgres"
	accountrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/account"
	auditrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/auditevent"
	conversationrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/conversation"
	debtorrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/debtor"
	paymentrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/payment"
	planrepo "github.com/collectaai/collecta-backend/internal/adapter/postgres/plan"
	"github.com/collectaai/collecta-backend/internal/adapter/retrieval"
	"github.com/collectaai/collecta-backend/internal/audit"
	"github.com/collectaai/collecta-backend/internal/config"
	compliancesvc "github.com/collectaai/collecta-backend/internal/service/compliance"
	conversationsvc "github.com/collectaai/collecta-backend/internal/service/conversation"
	paymentsvc "github.com/collectaai/collecta-backend/internal/service/payment"
	validatorsvc "github.com/collectaai/collecta-backend/internal/service/validator"
	verificationsvc "github.com/collectaai/collecta-backend/internal/service/verification"
)

// App holds the fully wired negotiation backend: every service constructed,
// sharing one connection pool and one audit sink.
type App struct {
	Compliance    *compliancesvc.Service
	Verification  *verificationsvc.Service
	Payment       *paymentsvc.Service
	Validator     *validatorsvc.Service
	Conversations *conversationsvc.Service
	Audit         *audit.Sink

	pool *pgxpool.Pool
	log  *slog.Logger
}

// New wires the application from configuration. The caller owns the returned
// App and must Close it.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	tx := postgres.NewTxManager(pool)

	debtors := debtorrepo.New(pool)
	accounts := accountrepo.New(pool)
	conversations := conversationrepo.New(pool)
	plans := planrepo.New(pool)
	payments := paymentrepo.New(pool)
	auditEvents := auditrepo.New(pool)

	sink := audit.NewSink(auditEvents, log.With("component", "audit"),
		cfg.Audit.BufferSize, cfg.Audit.FlushTimeout)

	gen := generator.New(cfg.Generator.APIKey, cfg.Generator.Model,
		int64(cfg.Generator.MaxTokens), cfg.Generator.Timeout,
		log.With("component", "generator"))

	retriever := retrieval.NewProvider(cfg.Retrieval.BaseURL, cfg.Retrieval.TopK,
		cfg.Retrieval.Timeout, log.With("component", "retrieval"))

	compliance := compliancesvc.NewService(
		log.With("service", "compliance"),
		debtors, conversations, sink, tx,
		compliancesvc.Config{
			ContactHoursStart: cfg.Compliance.ContactHoursStart,
			ContactHoursEnd:   cfg.Compliance.ContactHoursEnd,
			MaxDailyAttempts:  cfg.Compliance.MaxDailyContactAttempts,
			MaxWeeklyAttempts: cfg.Compliance.MaxWeeklyContactAttempts,
			ProhibitedDays:    cfg.Compliance.ProhibitedContactDays,
		},
	)

	verification := verificationsvc.NewService(
		log.With("service", "verification"),
		conversations, debtors, accounts, sink, tx,
		cfg.Verification.MaxAttempts,
	)

	policy := paymentsvc.Policy{
		MaxSettlementPercentage:  cfg.Policy.MaxSettlementPercentage,
		MaxInstallmentMonths:     cfg.Policy.MaxInstallmentMonths,
		MinimumInstallmentAmount: cfg.Policy.MinimumInstallmentAmount,
	}
	payment := paymentsvc.NewService(
		log.With("service", "payment"),
		plans, payments, accounts, sink, tx, policy,
	)

	validator := validatorsvc.NewService(
		log.With("service", "validator"),
		validatorsvc.Policy{
			MaxSettlementPercentage:  cfg.Policy.MaxSettlementPercentage,
			MaxInstallmentMonths:     cfg.Policy.MaxInstallmentMonths,
			MinimumInstallmentAmount: cfg.Policy.MinimumInstallmentAmount,
		},
	)

	conversation := conversationsvc.NewService(
		log.With("service", "conversation"),
		conversations, debtors, accounts,
		compliance, gen, retriever, validator, payment, sink, tx,
	)

	return &App{
		Compliance:    compliance,
		Verification:  verification,
		Payment:       payment,
		Validator:     validator,
		Conversations: conversation,
		Audit:         sink,
		pool:          pool,
		log:           log,
	}, nil
}

// Close flushes the audit sink and releases the connection pool.
func (a *App) Close() error {
	err := a.Audit.Close()
	if err != nil {
		a.log.Warn("audit sink did not drain before timeout", slog.Any("error", err))
	}
	a.pool.Close()
	return err
}

// Run wires the application and blocks until the context is cancelled, then
// shuts down cleanly. This is the entry point used by cmd/server.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting collecta backend",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	app, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("negotiation services ready")

	<-ctx.Done()

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	if err := app.Close(); err != nil {
		logger.Warn("shutdown incomplete", slog.Any("error", err))
	}

	logger.Info("stopped", slog.Uint64("audit_events_dropped", app.Audit.Dropped()))
	return nil
}
