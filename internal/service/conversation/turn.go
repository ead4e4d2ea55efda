package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/adapter/generator"
	"github.com/collectaai/collecta-backend/internal/domain"
	"github.com/collectaai/collecta-backend/internal/service/payment"
	"github.com/collectaai/collecta-backend/internal/service/validator"
)

// Fixed responses for turns that never reach the generator.
const (
	optedOutMessage = "This contact has opted out of communications. " +
		"No further messages will be sent."
	closedSessionMessage = "This conversation has been closed. " +
		"Please start a new session to continue."
	escalatedSessionMessage = "This conversation has been escalated to a " +
		"human agent who will contact you shortly."
	fallbackMessage = "I'm experiencing technical difficulties and want to ensure " +
		"you receive the best service. Let me connect you with a specialist " +
		"who can assist you immediately."
	planViolationMessage = "I need to connect you with a specialist who can help " +
		"finalize a payment arrangement. They will contact you shortly."
)

// ProcessTurn runs one inbound message through the full turn pipeline:
// opt-out and compliance gating, inbound recording, proposal generation,
// validation, action application, outbound recording. All persistence of a
// turn commits in one transaction; a refused turn persists nothing. Turns on
// the same (account, session) are serialized; re-delivered content is a new
// turn, there is no deduplication.
func (s *Service) ProcessTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.AccountID.String() + "/" + in.SessionID)
	defer unlock()

	account, err := s.accounts.GetByID(ctx, in.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	debtor, err := s.debtors.GetByID(ctx, account.DebtorID)
	if err != nil {
		return nil, fmt.Errorf("get debtor: %w", err)
	}

	conv, err := s.conversations.GetBySession(ctx, in.AccountID, in.SessionID)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if found {
		switch conv.State {
		case domain.ConversationStateOptedOut:
			return refusedResult(conv, optedOutMessage, "opt_out_respected"), nil
		case domain.ConversationStateClosed:
			return refusedResult(conv, closedSessionMessage, "session_closed"), nil
		case domain.ConversationStateEscalated:
			return refusedResult(conv, escalatedSessionMessage, "session_escalated"), nil
		}
	}

	decision, err := s.gate.Evaluate(ctx, debtor)
	if err != nil {
		return nil, fmt.Errorf("compliance gate: %w", err)
	}
	s.audit.Record(domain.AuditEvent{
		EventType:   "compliance_checked",
		DebtorID:    &debtor.ID,
		AccountID:   &account.ID,
		Severity:    domain.SeverityInfo,
		Description: fmt.Sprintf("contact gate ran %d checks, allowed=%v", len(decision.Checks), decision.Allowed),
		Details: map[string]any{
			"allowed": decision.Allowed,
			"checks":  checkOutcomes(decision.Checks),
		},
	})
	if !decision.Allowed {
		s.audit.Record(domain.AuditEvent{
			EventType:   "contact_blocked",
			DebtorID:    &debtor.ID,
			AccountID:   &account.ID,
			Severity:    decision.Severity,
			Description: decision.Reason,
			Details: map[string]any{
				"checks": checkOutcomes(decision.Checks),
			},
		})
		res := refusedResult(conv, "Contact not allowed at this time: "+decision.Reason, "contact_blocked")
		return res, nil
	}

	proposal := s.propose(ctx, in, conv, found, debtor, account)

	validated, checks := s.validator.Validate(proposal, validator.Context{
		IdentityVerified: found && conv.IdentityVerified,
		CurrentBalance:   account.CurrentBalance,
	})

	var planID *uuid.UUID
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := s.now().UTC()

		if !found {
			conv, err = s.conversations.Create(ctx, domain.Conversation{
				ID:           uuid.New(),
				SessionID:    in.SessionID,
				DebtorID:     debtor.ID,
				AccountID:    account.ID,
				State:        domain.ConversationStateInitiated,
				Channel:      in.Channel,
				SessionData:  map[string]any{},
				LastActivity: now,
			})
			if err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}
		}

		if _, err := s.conversations.AppendMessage(ctx, domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           domain.MessageRoleUser,
			Content:        in.Message,
		}); err != nil {
			return fmt.Errorf("record inbound message: %w", err)
		}

		if validated.Plan != nil && !validated.Escalate {
			plan, err := s.plans.BuildPlan(ctx, payment.BuildPlanInput{
				AccountID:      account.ID,
				ConversationID: conv.ID,
				Proposal:       *validated.Plan,
			})
			var pv *domain.PolicyViolationError
			switch {
			case errors.As(err, &pv):
				s.log.Warn("proposed plan violates policy, forcing escalation",
					slog.String("conversation_id", conv.ID.String()),
					slog.Any("error", err),
				)
				validated = validated.Escalated(planViolationMessage, "validation_failed")
			case err != nil:
				return fmt.Errorf("build plan: %w", err)
			default:
				planID = &plan.ID
			}
		}

		s.applyAction(&conv, validated, now)

		conv, err = s.conversations.Update(ctx, conv)
		if err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}

		confidence := validated.Confidence
		if _, err := s.conversations.AppendMessage(ctx, domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           domain.MessageRoleAssistant,
			Content:        validated.Message,
			Confidence:     &confidence,
			ComplianceTags: validated.ComplianceTags,
		}); err != nil {
			return fmt.Errorf("record outbound message: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTurnAudit(conv, debtor, validated, checks)

	return s.turnResult(conv, validated, planID), nil
}

// propose assembles the turn context and asks the generator for the next
// action. Any generation failure is replaced by the fixed safe fallback and
// never surfaced to the caller.
func (s *Service) propose(ctx context.Context, in TurnInput, conv domain.Conversation, found bool, debtor domain.Debtor, account domain.Account) domain.ProposedAction {
	state := domain.ConversationStateInitiated
	identityVerified := false
	var recent []domain.Message
	if found {
		state = conv.State
		identityVerified = conv.IdentityVerified

		var err error
		recent, err = s.conversations.GetRecentMessages(ctx, conv.ID, historyWindow)
		if err != nil {
			s.log.Warn("loading recent messages failed, continuing without history",
				slog.String("conversation_id", conv.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	var snippets []string
	if s.retrieval.Enabled() {
		snippets = s.retrieval.Fetch(ctx, in.Message)
	}

	proposal, err := s.generator.Propose(ctx, generator.TurnContext{
		State:            state,
		Channel:          in.Channel,
		DebtorName:       debtor.Name,
		IdentityVerified: identityVerified,
		CurrentBalance:   account.CurrentBalance,
		Currency:         account.Currency,
		DaysOverdue:      account.DaysOverdue,
		RecentMessages:   recent,
		Snippets:         snippets,
		UserMessage:      in.Message,
	})
	if err != nil {
		s.log.Warn("generation failed, substituting fallback escalation",
			slog.String("account_id", account.ID.String()),
			slog.Any("error", err),
		)
		return domain.ProposedAction{
			Action:         domain.ActionEscalate,
			Message:        fallbackMessage,
			Confidence:     1.0,
			Escalate:       true,
			ComplianceTags: []string{"technical_failure_escalation"},
		}
	}

	return proposal
}

// applyAction moves the conversation per the validated action and refreshes
// the activity timestamp. Every move goes through CanTransition, so a
// terminal conversation never leaves its state whatever the action says.
func (s *Service) applyAction(conv *domain.Conversation, validated domain.ProposedAction, now time.Time) {
	switch {
	case validated.Escalate:
		if conv.CanTransition(domain.ConversationStateEscalated) {
			reason := escalationReason(validated)
			conv.State = domain.ConversationStateEscalated
			conv.EscalationReason = &reason
			conv.EscalationDate = &now
		}
	case validated.Action == domain.ActionVerifyIdentity:
		s.transition(conv, domain.ConversationStateIdentityVerification)
	case validated.Action == domain.ActionProposePlan, validated.Action == domain.ActionCollectPayment:
		s.transition(conv, domain.ConversationStateActiveNegotiation)
	case validated.Action == domain.ActionClose:
		s.transition(conv, domain.ConversationStateClosed)
	}
	conv.LastActivity = now
}

func (s *Service) transition(conv *domain.Conversation, to domain.ConversationState) {
	if !conv.CanTransition(to) {
		s.log.Warn("state transition refused",
			slog.String("conversation_id", conv.ID.String()),
			slog.String("from", string(conv.State)),
			slog.String("to", string(to)),
		)
		return
	}
	conv.State = to
}

// checkOutcomes flattens compliance check results for audit event details.
func checkOutcomes(checks []domain.ComplianceCheck) []map[string]any {
	out := make([]map[string]any, 0, len(checks))
	for _, c := range checks {
		out = append(out, map[string]any{
			"name":    c.Name,
			"passed":  c.Passed,
			"details": c.Details,
		})
	}
	return out
}

func escalationReason(validated domain.ProposedAction) string {
	switch {
	case slices.Contains(validated.ComplianceTags, "technical_failure_escalation"):
		return "Generation failure"
	case slices.Contains(validated.ComplianceTags, "validation_failed"):
		return "Response validation failed"
	default:
		return "Assistant requested escalation"
	}
}

func (s *Service) recordTurnAudit(conv domain.Conversation, debtor domain.Debtor, validated domain.ProposedAction, checks []domain.ComplianceCheck) {
	var failed []string
	for _, c := range checks {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}

	s.audit.Record(domain.AuditEvent{
		EventType:      "turn_processed",
		ConversationID: &conv.ID,
		DebtorID:       &debtor.ID,
		AccountID:      &conv.AccountID,
		Severity:       domain.SeverityInfo,
		Description:    fmt.Sprintf("turn processed with action %s", validated.Action),
		Details: map[string]any{
			"action":          validated.Action.String(),
			"confidence":      validated.Confidence,
			"escalated":       validated.Escalate,
			"failed_checks":   failed,
			"response_checks": checkOutcomes(checks),
			"state":           string(conv.State),
		},
	})

	if validated.Escalate {
		reason := escalationReason(validated)
		s.audit.Record(domain.AuditEvent{
			EventType:      "conversation_escalated",
			ConversationID: &conv.ID,
			DebtorID:       &debtor.ID,
			AccountID:      &conv.AccountID,
			Severity:       domain.SeverityWarning,
			Description:    reason,
		})
	}
}

func (s *Service) turnResult(conv domain.Conversation, validated domain.ProposedAction, planID *uuid.UUID) *TurnResult {
	var nextSteps []string
	requiresAction := false

	if validated.Escalate {
		nextSteps = append(nextSteps, "Conversation escalated to human agent")
	}
	if planID != nil {
		requiresAction = true
		nextSteps = append(nextSteps, "Payment plan created with ID: "+planID.String())
	}
	if validated.Action == domain.ActionVerifyIdentity {
		requiresAction = true
		nextSteps = append(nextSteps, "Identity verification required")
	}
	if validated.Action == domain.ActionCollectPayment {
		requiresAction = true
		nextSteps = append(nextSteps, "Payment processing required")
	}

	return &TurnResult{
		OK:             true,
		ConversationID: conv.ID,
		State:          conv.State,
		Action:         validated.Action,
		Message:        validated.Message,
		Confidence:     validated.Confidence,
		Escalated:      validated.Escalate,
		ComplianceTags: validated.ComplianceTags,
		PlanID:         planID,
		RequiresAction: requiresAction,
		NextSteps:      nextSteps,
	}
}

// refusedResult is the fixed reply for a turn refused before processing.
// Nothing is recorded and no state changes.
func refusedResult(conv domain.Conversation, message, tag string) *TurnResult {
	return &TurnResult{
		OK:             false,
		ConversationID: conv.ID,
		State:          conv.State,
		Action:         domain.ActionClose,
		Message:        message,
		Confidence:     1.0,
		ComplianceTags: []string{tag},
	}
}
