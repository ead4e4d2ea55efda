package domain

import "testing"

func TestActionKind_IsValid(t *testing.T) {
	t.Parallel()

	valid := []ActionKind{
		ActionInform, ActionCollectPayment, ActionProposePlan, ActionAcknowledge,
		ActionRequestInfo, ActionVerifyIdentity, ActionEscalate, ActionClose,
	}
	for _, a := range valid {
		if !a.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", a)
		}
	}

	for _, a := range []ActionKind{"", "INFORM", "unknown"} {
		if a.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", a)
		}
	}
}

func TestPlanKind_IsValid(t *testing.T) {
	t.Parallel()

	for _, k := range []PlanKind{PlanKindInstallment, PlanKindSettlement, PlanKindOneTime} {
		if !k.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", k)
		}
	}
	if PlanKind("full_payment").IsValid() {
		t.Error("unknown plan kind reported valid")
	}
}

func TestPaymentFrequency_IsValid(t *testing.T) {
	t.Parallel()

	for _, f := range []PaymentFrequency{FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly} {
		if !f.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", f)
		}
	}
	if PaymentFrequency("daily").IsValid() {
		t.Error("unknown frequency reported valid")
	}
}

func TestConversationState_IsValid(t *testing.T) {
	t.Parallel()

	states := []ConversationState{
		ConversationStateInitiated, ConversationStateIdentityVerification,
		ConversationStateActiveNegotiation, ConversationStatePaymentProcessing,
		ConversationStateEscalated, ConversationStateClosed, ConversationStateOptedOut,
	}
	for _, s := range states {
		if !s.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", s)
		}
	}
	if ConversationState("negotiating").IsValid() {
		t.Error("unknown state reported valid")
	}
}
