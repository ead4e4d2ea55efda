package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

const debtValidationReason = "Debt validation requested"

// OptOutResult reports the outcome of an opt-out request.
type OptOutResult struct {
	Debtor              domain.Debtor
	ConversationsClosed int
	Message             string
}

// HandleOptOut records a debtor's opt-out and moves all their non-terminal
// conversations to OPTED_OUT. The opt-out date is write-once; repeating the
// request is a no-op that still reports success.
func (s *Service) HandleOptOut(ctx context.Context, debtorID uuid.UUID) (OptOutResult, error) {
	now := s.now().UTC()

	var (
		debtor domain.Debtor
		closed int
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		debtor, err = s.debtors.SetOptOut(ctx, debtorID, now)
		if errors.Is(err, domain.ErrNotFound) {
			// Either the debtor does not exist or they opted out earlier.
			debtor, err = s.debtors.GetByID(ctx, debtorID)
			if err != nil {
				return fmt.Errorf("get debtor: %w", err)
			}
			if !debtor.OptedOut() {
				return fmt.Errorf("debtor %s: %w", debtorID, domain.ErrConflict)
			}
		} else if err != nil {
			return fmt.Errorf("set opt-out: %w", err)
		}

		closed, err = s.conversations.OptOutActiveByDebtor(ctx, debtorID, now)
		if err != nil {
			return fmt.Errorf("close active conversations: %w", err)
		}
		return nil
	})
	if err != nil {
		return OptOutResult{}, err
	}

	s.audit.Record(domain.AuditEvent{
		EventType:   "debtor_opt_out",
		DebtorID:    &debtorID,
		Severity:    domain.SeverityInfo,
		Description: fmt.Sprintf("debtor opted out, %d conversations closed", closed),
		Details: map[string]any{
			"opt_out_date":         debtor.OptOutDate.Format(time.RFC3339),
			"conversations_closed": closed,
		},
	})

	s.log.Info("debtor opted out",
		slog.String("debtor_id", debtorID.String()),
		slog.Int("conversations_closed", closed),
	)

	return OptOutResult{
		Debtor:              debtor,
		ConversationsClosed: closed,
		Message:             "You have been successfully removed from our contact list.",
	}, nil
}

// DebtValidationResult reports the outcome of a debt validation request.
type DebtValidationResult struct {
	ConversationsPaused int
	Message             string
	NextSteps           string
}

// HandleDebtValidationRequest pauses collection on an account: every
// conversation in active negotiation is escalated and the request is logged.
func (s *Service) HandleDebtValidationRequest(ctx context.Context, debtorID, accountID uuid.UUID) (DebtValidationResult, error) {
	now := s.now().UTC()

	var paused int
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		paused, err = s.conversations.EscalateNegotiatingByAccount(ctx, accountID, debtValidationReason, now)
		if err != nil {
			return fmt.Errorf("pause collection: %w", err)
		}
		return nil
	})
	if err != nil {
		return DebtValidationResult{}, err
	}

	s.audit.Record(domain.AuditEvent{
		EventType:   "debt_validation_requested",
		DebtorID:    &debtorID,
		AccountID:   &accountID,
		Severity:    domain.SeverityInfo,
		Description: fmt.Sprintf("debt validation requested, %d conversations paused", paused),
		Details: map[string]any{
			"request_date":         now.Format(time.RFC3339),
			"conversations_paused": paused,
		},
	})

	s.log.Info("debt validation requested",
		slog.String("account_id", accountID.String()),
		slog.Int("conversations_paused", paused),
	)

	return DebtValidationResult{
		ConversationsPaused: paused,
		Message:             "Your debt validation request has been received. Collection activities have been paused pending validation.",
		NextSteps:           "You will receive validation documentation within 30 days as required by law.",
	}, nil
}
