package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a debt account in collection. Read-only input to plan
// validation; only payment recording mutates the balance fields.
type Account struct {
	ID                uuid.UUID
	DebtorID          uuid.UUID
	AccountNumber     string
	PrincipalAmount   float64
	CurrentBalance    float64
	Currency          string
	OriginationDate   time.Time
	DueDate           time.Time
	DaysOverdue       int
	LastPaymentDate   *time.Time
	LastPaymentAmount float64
	Status            AccountStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Payment is a recorded repayment against an account. Amount and resulting
// balance only; no money moves through this system.
type Payment struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Amount      float64
	Method      string
	Description string
	ProcessedAt time.Time
	CreatedAt   time.Time
}
