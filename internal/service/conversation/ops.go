package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// Get returns a conversation with its full message history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (ConversationDetail, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return ConversationDetail{}, fmt.Errorf("get conversation: %w", err)
	}

	messages, err := s.conversations.ListMessages(ctx, id)
	if err != nil {
		return ConversationDetail{}, fmt.Errorf("list messages: %w", err)
	}

	return ConversationDetail{Conversation: conv, Messages: messages}, nil
}

// ListByAccount returns an account's conversations, optionally filtered by
// state, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID uuid.UUID, states []domain.ConversationState, limit, offset int) ([]domain.Conversation, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.conversations.ListByAccount(ctx, accountID, states, limit, offset)
}

// Escalate hands a conversation off to a human agent on an operator's
// request. Terminal conversations cannot be escalated again.
func (s *Service) Escalate(ctx context.Context, in EscalateInput) (domain.Conversation, error) {
	if in.Reason == "" {
		return domain.Conversation{}, domain.NewValidationError("reason", "required")
	}

	var conv domain.Conversation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		conv, err = s.conversations.GetByID(ctx, in.ConversationID)
		if err != nil {
			return fmt.Errorf("get conversation: %w", err)
		}

		if conv.State.IsTerminal() {
			return fmt.Errorf("conversation %s is %s: %w", conv.ID, conv.State, domain.ErrConflict)
		}

		now := s.now().UTC()
		conv.State = domain.ConversationStateEscalated
		conv.EscalationReason = &in.Reason
		conv.EscalationDate = &now
		conv.LastActivity = now

		conv, err = s.conversations.Update(ctx, conv)
		if err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}

	s.audit.Record(domain.AuditEvent{
		EventType:      "manual_escalation",
		ConversationID: &conv.ID,
		DebtorID:       &conv.DebtorID,
		AccountID:      &conv.AccountID,
		Severity:       domain.SeverityWarning,
		Description:    in.Reason,
		Details: map[string]any{
			"priority": in.Priority,
			"notes":    in.Notes,
		},
	})

	s.log.Info("conversation escalated manually",
		slog.String("conversation_id", conv.ID.String()),
		slog.String("reason", in.Reason),
		slog.String("priority", in.Priority),
	)

	return conv, nil
}
