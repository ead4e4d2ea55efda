package verification

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// amountTolerance is the allowed difference when matching a claimed last
// payment amount.
const amountTolerance = 0.01

const lockoutReason = "Maximum verification attempts exceeded"

// Input carries the facts the debtor provided. Empty/nil fields were not
// provided and are not checked.
type Input struct {
	ConversationID    uuid.UUID
	IDLastFour        string
	LastPaymentAmount *float64
}

// Result is the outcome of one verification attempt.
type Result struct {
	Verified          bool
	Message           string
	AttemptsRemaining int
}

// Verify checks the provided facts against the record. Every provided fact
// must match; facts not provided are not checked. The attempt counter
// increments on every call, matching or not. Once the counter reaches the
// limit the conversation escalates and further attempts are rejected.
func (s *Service) Verify(ctx context.Context, in Input) (Result, error) {
	var res Result

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		conv, err := s.conversations.GetByID(ctx, in.ConversationID)
		if err != nil {
			return fmt.Errorf("get conversation: %w", err)
		}

		debtor, err := s.debtors.GetByID(ctx, conv.DebtorID)
		if err != nil {
			return fmt.Errorf("get debtor: %w", err)
		}
		account, err := s.accounts.GetByID(ctx, conv.AccountID)
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		if conv.VerificationAttempts >= s.maxAttempts {
			res, err = s.lockOut(ctx, conv, debtor)
			return err
		}

		passed := true
		if in.IDLastFour != "" && in.IDLastFour != debtor.IDLastFour {
			passed = false
		}
		if in.LastPaymentAmount != nil &&
			math.Abs(*in.LastPaymentAmount-account.LastPaymentAmount) > amountTolerance {
			passed = false
		}

		conv.VerificationAttempts++

		if passed {
			conv.IdentityVerified = true
			conv.State = domain.ConversationStateActiveNegotiation
			conv.LastActivity = s.now().UTC()

			if _, err := s.conversations.Update(ctx, conv); err != nil {
				return fmt.Errorf("update conversation: %w", err)
			}

			s.audit.Record(domain.AuditEvent{
				EventType:      "identity_verified",
				ConversationID: &conv.ID,
				DebtorID:       &debtor.ID,
				AccountID:      &account.ID,
				Severity:       domain.SeverityInfo,
				Description:    "identity verified",
				Details:        map[string]any{"attempt_number": conv.VerificationAttempts},
			})

			res = Result{
				Verified:          true,
				Message:           "Identity verified successfully.",
				AttemptsRemaining: s.maxAttempts - conv.VerificationAttempts,
			}
			return nil
		}

		conv.LastActivity = s.now().UTC()
		if _, err := s.conversations.Update(ctx, conv); err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}

		remaining := s.maxAttempts - conv.VerificationAttempts

		s.audit.Record(domain.AuditEvent{
			EventType:      "identity_verification_failed",
			ConversationID: &conv.ID,
			DebtorID:       &debtor.ID,
			Severity:       domain.SeverityWarning,
			Description:    "identity verification failed",
			Details:        map[string]any{"attempt_number": conv.VerificationAttempts},
		})

		res = Result{
			Verified:          false,
			Message:           fmt.Sprintf("Identity verification failed. %d attempts remaining.", remaining),
			AttemptsRemaining: remaining,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return res, nil
}

// lockOut escalates a conversation that has exhausted its attempts.
func (s *Service) lockOut(ctx context.Context, conv domain.Conversation, debtor domain.Debtor) (Result, error) {
	if !conv.State.IsTerminal() {
		now := s.now().UTC()
		reason := lockoutReason
		conv.State = domain.ConversationStateEscalated
		conv.EscalationReason = &reason
		conv.EscalationDate = &now
		conv.LastActivity = now

		if _, err := s.conversations.Update(ctx, conv); err != nil {
			return Result{}, fmt.Errorf("escalate conversation: %w", err)
		}
	}

	s.audit.Record(domain.AuditEvent{
		EventType:      "verification_lockout",
		ConversationID: &conv.ID,
		DebtorID:       &debtor.ID,
		Severity:       domain.SeverityError,
		Description:    lockoutReason,
	})

	s.log.Warn("verification lockout",
		slog.String("conversation_id", conv.ID.String()),
		slog.Int("attempts", conv.VerificationAttempts),
	)

	return Result{
		Verified:          false,
		Message:           "Maximum verification attempts exceeded. Escalating to human agent.",
		AttemptsRemaining: 0,
	}, nil
}
