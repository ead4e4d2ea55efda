package domain

// PlanProposal is the structured plan attached to a generated proposal,
// before policy validation. Installments and FirstDueDate are optional; zero
// values mean "unset".
type PlanProposal struct {
	Kind         PlanKind
	Amount       float64
	Installments int
	FirstDueDate string // "YYYY-MM-DD", empty = default (now + 7 days)
	Frequency    PaymentFrequency
}

// ProposedAction is the externally generated candidate next action for a
// turn. It is ephemeral: produced by the generator, possibly replaced by the
// response validator, never persisted verbatim. Treat values as immutable and
// derive new ones with the With/Escalated helpers instead of mutating.
type ProposedAction struct {
	Action         ActionKind
	Message        string
	Plan           *PlanProposal
	Confidence     float64
	Escalate       bool
	ComplianceTags []string
}

// Escalated returns a copy of the proposal rewritten as a forced escalation:
// the structured plan is discarded, the message replaced with the hand-off
// text, and the extra tags appended. The receiver is not modified.
func (p ProposedAction) Escalated(message string, tags ...string) ProposedAction {
	out := p
	out.Action = ActionEscalate
	out.Escalate = true
	out.Message = message
	out.Plan = nil
	out.ComplianceTags = append(append([]string{}, p.ComplianceTags...), tags...)
	return out
}

// WithTags returns a copy of the proposal with the given tags appended.
func (p ProposedAction) WithTags(tags ...string) ProposedAction {
	out := p
	out.ComplianceTags = append(append([]string{}, p.ComplianceTags...), tags...)
	return out
}
