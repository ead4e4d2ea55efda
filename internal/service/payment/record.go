package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// RecordPaymentInput describes a payment already processed elsewhere.
type RecordPaymentInput struct {
	AccountID   uuid.UUID
	Amount      float64
	Method      string
	Description string
}

// RecordPaymentResult reports the recorded payment and the account after it.
type RecordPaymentResult struct {
	Payment domain.Payment
	Account domain.Account
}

// RecordPayment appends a payment record and applies it to the account
// balance. Zeroing the balance moves the account to paid. The payment and the
// balance change commit together.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (RecordPaymentResult, error) {
	if in.Amount <= 0 {
		return RecordPaymentResult{}, domain.NewValidationError("amount", "payment amount must be positive")
	}

	now := s.now().UTC()

	var res RecordPaymentResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		payment, err := s.payments.Create(ctx, domain.Payment{
			ID:          uuid.New(),
			AccountID:   in.AccountID,
			Amount:      in.Amount,
			Method:      in.Method,
			Description: in.Description,
			ProcessedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		account, err := s.accounts.ApplyPayment(ctx, in.AccountID, in.Amount, now)
		if err != nil {
			return fmt.Errorf("apply payment: %w", err)
		}

		res = RecordPaymentResult{Payment: payment, Account: account}
		return nil
	})
	if err != nil {
		return RecordPaymentResult{}, err
	}

	s.audit.Record(domain.AuditEvent{
		EventType:   "payment_recorded",
		AccountID:   &in.AccountID,
		Severity:    domain.SeverityInfo,
		Description: fmt.Sprintf("payment of %.2f recorded, balance now %.2f", in.Amount, res.Account.CurrentBalance),
		Details: map[string]any{
			"payment_id": res.Payment.ID.String(),
			"amount":     in.Amount,
			"method":     in.Method,
			"balance":    res.Account.CurrentBalance,
		},
	})

	s.log.Info("payment recorded",
		slog.String("account_id", in.AccountID.String()),
		slog.Float64("amount", in.Amount),
		slog.Float64("balance", res.Account.CurrentBalance),
	)

	return res, nil
}
