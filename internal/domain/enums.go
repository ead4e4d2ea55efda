package domain

// ConversationState represents a conversation's position in the collection
// lifecycle. Escalated, Closed, and OptedOut are terminal.
type ConversationState string

const (
	ConversationStateInitiated            ConversationState = "INITIATED"
	ConversationStateIdentityVerification ConversationState = "IDENTITY_VERIFICATION"
	ConversationStateActiveNegotiation    ConversationState = "ACTIVE_NEGOTIATION"
	ConversationStatePaymentProcessing    ConversationState = "PAYMENT_PROCESSING"
	ConversationStateEscalated            ConversationState = "ESCALATED"
	ConversationStateClosed               ConversationState = "CLOSED"
	ConversationStateOptedOut             ConversationState = "OPTED_OUT"
)

func (s ConversationState) String() string { return string(s) }

func (s ConversationState) IsValid() bool {
	switch s {
	case ConversationStateInitiated, ConversationStateIdentityVerification,
		ConversationStateActiveNegotiation, ConversationStatePaymentProcessing,
		ConversationStateEscalated, ConversationStateClosed, ConversationStateOptedOut:
		return true
	}
	return false
}

// IsTerminal reports whether no further automated transitions are allowed.
func (s ConversationState) IsTerminal() bool {
	switch s {
	case ConversationStateEscalated, ConversationStateClosed, ConversationStateOptedOut:
		return true
	}
	return false
}

// Channel represents the communication channel of a conversation.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelVoice Channel = "voice"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelChat, ChannelSMS, ChannelEmail, ChannelVoice:
		return true
	}
	return false
}

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

func (r MessageRole) String() string { return string(r) }

func (r MessageRole) IsValid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	}
	return false
}

// ActionKind is the discriminant of a ProposedAction.
type ActionKind string

const (
	ActionInform         ActionKind = "inform"
	ActionCollectPayment ActionKind = "collect_payment"
	ActionProposePlan    ActionKind = "propose_plan"
	ActionAcknowledge    ActionKind = "acknowledge"
	ActionRequestInfo    ActionKind = "request_info"
	ActionVerifyIdentity ActionKind = "verify_identity"
	ActionEscalate       ActionKind = "escalate"
	ActionClose          ActionKind = "close"
)

func (a ActionKind) String() string { return string(a) }

func (a ActionKind) IsValid() bool {
	switch a {
	case ActionInform, ActionCollectPayment, ActionProposePlan, ActionAcknowledge,
		ActionRequestInfo, ActionVerifyIdentity, ActionEscalate, ActionClose:
		return true
	}
	return false
}

// PlanKind represents the type of a payment arrangement.
type PlanKind string

const (
	PlanKindInstallment PlanKind = "installment"
	PlanKindSettlement  PlanKind = "settlement"
	PlanKindOneTime     PlanKind = "one_time"
)

func (k PlanKind) String() string { return string(k) }

func (k PlanKind) IsValid() bool {
	switch k {
	case PlanKindInstallment, PlanKindSettlement, PlanKindOneTime:
		return true
	}
	return false
}

// PlanStatus represents the lifecycle status of a payment plan.
type PlanStatus string

const (
	PlanStatusProposed  PlanStatus = "proposed"
	PlanStatusAccepted  PlanStatus = "accepted"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusDefaulted PlanStatus = "defaulted"
)

func (s PlanStatus) String() string { return string(s) }

func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusProposed, PlanStatusAccepted, PlanStatusActive,
		PlanStatusCompleted, PlanStatusDefaulted:
		return true
	}
	return false
}

// PaymentFrequency is the interval between scheduled installments.
type PaymentFrequency string

const (
	FrequencyWeekly   PaymentFrequency = "weekly"
	FrequencyBiWeekly PaymentFrequency = "bi-weekly"
	FrequencyMonthly  PaymentFrequency = "monthly"
)

func (f PaymentFrequency) String() string { return string(f) }

func (f PaymentFrequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ConsentStatus represents a debtor's communication consent.
type ConsentStatus string

const (
	ConsentPending ConsentStatus = "pending"
	ConsentGranted ConsentStatus = "granted"
	ConsentRevoked ConsentStatus = "revoked"
	ConsentExpired ConsentStatus = "expired"
)

func (s ConsentStatus) String() string { return string(s) }

func (s ConsentStatus) IsValid() bool {
	switch s {
	case ConsentPending, ConsentGranted, ConsentRevoked, ConsentExpired:
		return true
	}
	return false
}

// AccountStatus represents the collection status of a debt account.
type AccountStatus string

const (
	AccountStatusActive       AccountStatus = "active"
	AccountStatusOverdue      AccountStatus = "overdue"
	AccountStatusSettled      AccountStatus = "settled"
	AccountStatusPaid         AccountStatus = "paid"
	AccountStatusWrittenOff   AccountStatus = "written_off"
	AccountStatusInLitigation AccountStatus = "in_litigation"
)

func (s AccountStatus) String() string { return string(s) }

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusOverdue, AccountStatusSettled,
		AccountStatusPaid, AccountStatusWrittenOff, AccountStatusInLitigation:
		return true
	}
	return false
}

// CheckSeverity grades the impact of a compliance-check outcome.
type CheckSeverity string

const (
	SeverityInfo     CheckSeverity = "info"
	SeverityWarning  CheckSeverity = "warning"
	SeverityError    CheckSeverity = "error"
	SeverityCritical CheckSeverity = "critical"
)

func (s CheckSeverity) String() string { return string(s) }

func (s CheckSeverity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}
