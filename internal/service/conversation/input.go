package conversation

import (
	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// TurnInput is one inbound debtor message addressed to an account session.
type TurnInput struct {
	AccountID uuid.UUID
	SessionID string
	Channel   domain.Channel
	Message   string
}

func (in TurnInput) validate() error {
	var errs []domain.FieldError
	if in.AccountID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "account_id", Message: "required"})
	}
	if in.SessionID == "" {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if in.Message == "" {
		errs = append(errs, domain.FieldError{Field: "message", Message: "required"})
	}
	if !in.Channel.IsValid() {
		errs = append(errs, domain.FieldError{Field: "channel", Message: "unknown channel"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// TurnResult is the outcome of one processed turn. OK is false when the turn
// was refused before processing (opt-out, closed session, compliance block);
// a refused turn mutates nothing.
type TurnResult struct {
	OK             bool
	ConversationID uuid.UUID
	State          domain.ConversationState
	Action         domain.ActionKind
	Message        string
	Confidence     float64
	Escalated      bool
	ComplianceTags []string
	PlanID         *uuid.UUID
	RequiresAction bool
	NextSteps      []string
}

// ConversationDetail is a conversation with its full message history.
type ConversationDetail struct {
	Conversation domain.Conversation
	Messages     []domain.Message
}

// EscalateInput is a manual hand-off request from an operator.
type EscalateInput struct {
	ConversationID uuid.UUID
	Reason         string
	Priority       string
	Notes          string
}
