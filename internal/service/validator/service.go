// Package validator enforces policy and compliance rules on generated
// proposals. Every proposal passes through here before it reaches the debtor;
// a proposal that violates any rule is rewritten into a neutral escalation.
package validator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// escalationMessage replaces the generated text when validation fails. It is
// deliberately neutral: no account details, no reference to what went wrong.
const escalationMessage = "I need to connect you with a specialist who can better " +
	"assist with your request. They will contact you shortly."

// prohibitedPhrases are never allowed in outbound messages, regardless of
// verification state.
var prohibitedPhrases = []string{
	"threaten", "sue", "arrest", "jail", "garnish", "seize",
	"ruin credit", "legal action", "court", "lawsuit",
}

// disclosureKeywords indicate account details that must not be shared before
// identity verification.
var disclosureKeywords = []string{"balance", "amount", "$"}

// Policy holds the payment plan limits.
type Policy struct {
	MaxSettlementPercentage  float64
	MaxInstallmentMonths     int
	MinimumInstallmentAmount float64
}

// Context is the conversation state the rules are checked against.
type Context struct {
	IdentityVerified bool
	CurrentBalance   float64
}

// Service validates proposed actions.
type Service struct {
	policy Policy
	log    *slog.Logger
}

// NewService creates a new validator service.
func NewService(log *slog.Logger, policy Policy) *Service {
	return &Service{policy: policy, log: log}
}

// Validate checks a proposal against plan policy and message compliance rules
// and returns the proposal to act on plus every check that was run. All
// violations are collected before deciding. If any check failed and the
// proposal is not already an escalation, the result is a forced escalation
// with the plan discarded and a validation_failed tag.
func (s *Service) Validate(p domain.ProposedAction, vctx Context) (domain.ProposedAction, []domain.ComplianceCheck) {
	var checks []domain.ComplianceCheck

	if p.Plan != nil {
		checks = append(checks, s.checkPlan(*p.Plan, vctx.CurrentBalance)...)
	}
	checks = append(checks, checkMessage(p.Message, vctx.IdentityVerified)...)

	var failed []string
	for _, c := range checks {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}

	if len(failed) == 0 || p.Escalate {
		return p, checks
	}

	s.log.Warn("proposal failed validation, forcing escalation",
		slog.Any("failed_checks", failed),
		slog.String("action", p.Action.String()),
	)

	return p.Escalated(escalationMessage, "validation_failed"), checks
}

// checkPlan validates a plan proposal against the policy limits. The
// settlement ceiling is checked against the live balance.
func (s *Service) checkPlan(plan domain.PlanProposal, balance float64) []domain.ComplianceCheck {
	var checks []domain.ComplianceCheck

	switch plan.Kind {
	case domain.PlanKindSettlement:
		maxAmount := s.policy.MaxSettlementPercentage * balance
		switch {
		case plan.Amount <= 0:
			checks = append(checks, domain.ComplianceCheck{
				Name:     "settlement_amount",
				Passed:   false,
				Details:  "settlement amount must be positive",
				Severity: domain.SeverityError,
			})
		case balance > 0 && plan.Amount > maxAmount:
			checks = append(checks, domain.ComplianceCheck{
				Name:     "settlement_percentage",
				Passed:   false,
				Details:  fmt.Sprintf("settlement %.2f exceeds %.0f%% of balance %.2f", plan.Amount, s.policy.MaxSettlementPercentage*100, balance),
				Severity: domain.SeverityError,
			})
		default:
			checks = append(checks, domain.ComplianceCheck{
				Name:    "settlement_percentage",
				Passed:  true,
				Details: "settlement amount is within limits",
			})
		}

	case domain.PlanKindInstallment:
		if plan.Installments > s.policy.MaxInstallmentMonths {
			checks = append(checks, domain.ComplianceCheck{
				Name:     "installment_duration",
				Passed:   false,
				Details:  fmt.Sprintf("%d installments exceed maximum %d", plan.Installments, s.policy.MaxInstallmentMonths),
				Severity: domain.SeverityError,
			})
		} else {
			checks = append(checks, domain.ComplianceCheck{
				Name:    "installment_duration",
				Passed:  true,
				Details: "installment count is within limits",
			})
		}

		perInstallment := plan.Amount
		if plan.Installments > 1 {
			perInstallment = plan.Amount / float64(plan.Installments)
		}
		if perInstallment < s.policy.MinimumInstallmentAmount {
			checks = append(checks, domain.ComplianceCheck{
				Name:     "minimum_payment",
				Passed:   false,
				Details:  fmt.Sprintf("installment %.2f is below minimum %.2f", perInstallment, s.policy.MinimumInstallmentAmount),
				Severity: domain.SeverityError,
			})
		} else {
			checks = append(checks, domain.ComplianceCheck{
				Name:    "minimum_payment",
				Passed:  true,
				Details: "installment amount meets the minimum",
			})
		}

	case domain.PlanKindOneTime:
		if plan.Amount <= 0 {
			checks = append(checks, domain.ComplianceCheck{
				Name:     "payment_amount",
				Passed:   false,
				Details:  "one-time payment must be positive",
				Severity: domain.SeverityError,
			})
		} else {
			checks = append(checks, domain.ComplianceCheck{
				Name:    "payment_amount",
				Passed:  true,
				Details: "payment amount is positive",
			})
		}
	}

	return checks
}

// checkMessage runs the content rules on an outbound message.
func checkMessage(message string, identityVerified bool) []domain.ComplianceCheck {
	var checks []domain.ComplianceCheck
	lower := strings.ToLower(message)

	var found []string
	for _, phrase := range prohibitedPhrases {
		if strings.Contains(lower, phrase) {
			found = append(found, phrase)
		}
	}
	if len(found) > 0 {
		checks = append(checks, domain.ComplianceCheck{
			Name:     "prohibited_language",
			Passed:   false,
			Details:  "prohibited language detected: " + strings.Join(found, ", "),
			Severity: domain.SeverityCritical,
		})
	} else {
		checks = append(checks, domain.ComplianceCheck{
			Name:    "prohibited_language",
			Passed:  true,
			Details: "no prohibited language detected",
		})
	}

	if !identityVerified {
		for _, kw := range disclosureKeywords {
			if strings.Contains(lower, kw) {
				checks = append(checks, domain.ComplianceCheck{
					Name:     "identity_verification",
					Passed:   false,
					Details:  "account information shared without identity verification",
					Severity: domain.SeverityError,
				})
				break
			}
		}
	}

	return checks
}
