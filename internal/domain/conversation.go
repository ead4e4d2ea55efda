package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is one negotiation session with a debtor over a single
// channel. Created on the first inbound message of a session, mutated only by
// the state machine, never deleted. Terminal states end it.
type Conversation struct {
	ID                   uuid.UUID
	SessionID            string
	DebtorID             uuid.UUID
	AccountID            uuid.UUID
	State                ConversationState
	Channel              Channel
	SessionData          map[string]any
	IdentityVerified     bool
	VerificationAttempts int
	EscalationReason     *string
	EscalationDate       *time.Time
	AssignedAgentID      *string
	LastActivity         time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CanTransition reports whether moving to the target state is allowed by the
// lifecycle graph. Terminal states never transition; any non-terminal state
// may escalate; OptedOut is reachable only through opt-out handling, which
// bypasses this check deliberately.
func (c Conversation) CanTransition(to ConversationState) bool {
	if c.State.IsTerminal() {
		return false
	}
	switch to {
	case ConversationStateEscalated, ConversationStateClosed,
		ConversationStateIdentityVerification, ConversationStateActiveNegotiation:
		return true
	case ConversationStatePaymentProcessing:
		return c.State == ConversationStateActiveNegotiation ||
			c.State == ConversationStatePaymentProcessing
	case ConversationStateOptedOut:
		return false
	}
	return false
}

// Message is one turn entry in a conversation's append-only history.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           MessageRole
	Content        string
	Confidence     *float64
	ComplianceTags []string
	CreatedAt      time.Time
}
