package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent is a fire-and-forget record of a compliance, verification,
// escalation, or payment outcome. Events are append-only and must never block
// or fail the primary flow.
type AuditEvent struct {
	ID             uuid.UUID
	EventType      string
	ConversationID *uuid.UUID
	DebtorID       *uuid.UUID
	AccountID      *uuid.UUID
	Severity       CheckSeverity
	Description    string
	Details        map[string]any
	CreatedAt      time.Time
}
