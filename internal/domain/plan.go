package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentPlan is an agreed or proposed repayment arrangement. Immutable once
// its status leaves "proposed", except for payment-progress fields.
type PaymentPlan struct {
	ID                   uuid.UUID
	AccountID            uuid.UUID
	ConversationID       uuid.UUID
	Kind                 PlanKind
	TotalAmount          float64
	InstallmentAmount    float64
	NumberOfInstallments int
	FirstPaymentDate     time.Time
	Frequency            PaymentFrequency
	Status               PlanStatus
	AcceptanceDate       *time.Time
	CompletionDate       *time.Time
	Schedule             []ScheduledPayment
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ScheduledPayment is one installment row of a payment plan's schedule.
// Due dates strictly increase by the plan's frequency step.
type ScheduledPayment struct {
	ID                uuid.UUID
	PlanID            uuid.UUID
	InstallmentNumber int
	DueDate           time.Time
	Amount            float64
	Status            string // pending, paid, overdue, skipped
	PaidDate          *time.Time
	PaidAmount        *float64
	CreatedAt         time.Time
}
