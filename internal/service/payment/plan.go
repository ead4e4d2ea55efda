package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// defaultFirstDueOffset is how far out the first installment lands when the
// proposal does not name a date.
const defaultFirstDueOffset = 7 * 24 * time.Hour

// BuildPlanInput carries everything needed to turn a structured proposal into
// a persisted plan.
type BuildPlanInput struct {
	AccountID      uuid.UUID
	ConversationID uuid.UUID
	Proposal       domain.PlanProposal
}

// BuildPlan validates a plan proposal against the policy ceilings and, when it
// passes, persists a proposed plan with its full installment schedule. Policy
// failures return a *domain.PolicyViolationError carrying every violated
// check; callers decide whether that forces escalation.
func (s *Service) BuildPlan(ctx context.Context, in BuildPlanInput) (*domain.PaymentPlan, error) {
	var plan domain.PaymentPlan

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetByID(ctx, in.AccountID)
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		if violations := s.checkProposal(in.Proposal, account.CurrentBalance); len(violations) > 0 {
			return &domain.PolicyViolationError{Violations: violations}
		}

		now := s.now().UTC()

		firstDue := s.firstDueDate(in.Proposal.FirstDueDate, now)
		installments := in.Proposal.Installments
		if in.Proposal.Kind != domain.PlanKindInstallment || installments < 1 {
			installments = 1
		}

		frequency := in.Proposal.Frequency
		if !frequency.IsValid() {
			frequency = domain.FrequencyMonthly
		}

		plan = domain.PaymentPlan{
			ID:                   uuid.New(),
			AccountID:            in.AccountID,
			ConversationID:       in.ConversationID,
			Kind:                 in.Proposal.Kind,
			TotalAmount:          in.Proposal.Amount,
			InstallmentAmount:    in.Proposal.Amount / float64(installments),
			NumberOfInstallments: installments,
			FirstPaymentDate:     firstDue,
			Frequency:            frequency,
			Status:               domain.PlanStatusProposed,
			Schedule:             buildSchedule(in.Proposal.Amount, installments, firstDue, frequency),
		}

		plan, err = s.plans.Create(ctx, plan)
		if err != nil {
			return fmt.Errorf("create plan: %w", err)
		}

		s.audit.Record(domain.AuditEvent{
			EventType:      "payment_plan_created",
			ConversationID: &in.ConversationID,
			AccountID:      &in.AccountID,
			Severity:       domain.SeverityInfo,
			Description:    fmt.Sprintf("%s plan proposed: %.2f over %d payments", plan.Kind, plan.TotalAmount, plan.NumberOfInstallments),
			Details: map[string]any{
				"plan_id":            plan.ID.String(),
				"kind":               string(plan.Kind),
				"total_amount":       plan.TotalAmount,
				"installments":       plan.NumberOfInstallments,
				"first_payment_date": firstDue.Format("2006-01-02"),
			},
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment plan created",
		slog.String("plan_id", plan.ID.String()),
		slog.String("kind", string(plan.Kind)),
		slog.Float64("total", plan.TotalAmount),
	)

	return &plan, nil
}

// AcceptPlan moves a proposed plan to accepted, stamping the acceptance date.
func (s *Service) AcceptPlan(ctx context.Context, planID uuid.UUID) (domain.PaymentPlan, error) {
	now := s.now().UTC()

	plan, err := s.plans.SetStatus(ctx, planID, domain.PlanStatusAccepted, now)
	if err != nil {
		return domain.PaymentPlan{}, fmt.Errorf("accept plan: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		EventType:      "payment_plan_accepted",
		ConversationID: &plan.ConversationID,
		AccountID:      &plan.AccountID,
		Severity:       domain.SeverityInfo,
		Description:    fmt.Sprintf("plan %s accepted", plan.ID),
	})

	return plan, nil
}

// checkProposal runs the policy ceilings and returns only the failed checks.
func (s *Service) checkProposal(p domain.PlanProposal, balance float64) []domain.ComplianceCheck {
	var violations []domain.ComplianceCheck

	switch p.Kind {
	case domain.PlanKindSettlement:
		maxAmount := s.policy.MaxSettlementPercentage * balance
		if p.Amount <= 0 {
			violations = append(violations, domain.ComplianceCheck{
				Name:     "settlement_amount",
				Details:  "settlement amount must be positive",
				Severity: domain.SeverityError,
			})
		} else if balance > 0 && p.Amount > maxAmount {
			violations = append(violations, domain.ComplianceCheck{
				Name:     "settlement_percentage",
				Details:  fmt.Sprintf("settlement %.2f exceeds %.0f%% of balance %.2f", p.Amount, s.policy.MaxSettlementPercentage*100, balance),
				Severity: domain.SeverityError,
			})
		}

	case domain.PlanKindInstallment:
		if p.Installments < 1 {
			violations = append(violations, domain.ComplianceCheck{
				Name:     "installment_count",
				Details:  "installment plan needs at least one installment",
				Severity: domain.SeverityError,
			})
			break
		}
		if p.Installments > s.policy.MaxInstallmentMonths {
			violations = append(violations, domain.ComplianceCheck{
				Name:     "installment_duration",
				Details:  fmt.Sprintf("%d installments exceed maximum %d", p.Installments, s.policy.MaxInstallmentMonths),
				Severity: domain.SeverityError,
			})
		}
		if per := p.Amount / float64(p.Installments); per < s.policy.MinimumInstallmentAmount {
			violations = append(violations, domain.ComplianceCheck{
				Name:     "minimum_payment",
				Details:  fmt.Sprintf("installment %.2f is below minimum %.2f", per, s.policy.MinimumInstallmentAmount),
				Severity: domain.SeverityError,
			})
		}

	case domain.PlanKindOneTime:
		if p.Amount <= 0 {
			violations = append(violations, domain.ComplianceCheck{
				Name:     "payment_amount",
				Details:  "one-time payment must be positive",
				Severity: domain.SeverityError,
			})
		}

	default:
		violations = append(violations, domain.ComplianceCheck{
			Name:     "plan_kind",
			Details:  fmt.Sprintf("unknown plan kind %q", p.Kind),
			Severity: domain.SeverityError,
		})
	}

	return violations
}

// firstDueDate parses the proposed date or falls back to a week out.
func (s *Service) firstDueDate(raw string, now time.Time) time.Time {
	if raw != "" {
		if due, err := time.Parse("2006-01-02", raw); err == nil {
			return due
		}
		s.log.Warn("unparsable first due date, using default", slog.String("raw", raw))
	}
	return now.Add(defaultFirstDueOffset).Truncate(24 * time.Hour)
}

// buildSchedule derives the installment rows. Weekly steps 7 days, bi-weekly
// 14, monthly advances the calendar month with day-of-month clamping.
func buildSchedule(total float64, installments int, firstDue time.Time, freq domain.PaymentFrequency) []domain.ScheduledPayment {
	per := total / float64(installments)

	schedule := make([]domain.ScheduledPayment, installments)
	for i := range installments {
		schedule[i] = domain.ScheduledPayment{
			InstallmentNumber: i + 1,
			DueDate:           dueDate(firstDue, freq, i),
			Amount:            per,
			Status:            "pending",
		}
	}
	return schedule
}

// dueDate returns the due date of the step-th installment.
func dueDate(first time.Time, freq domain.PaymentFrequency, step int) time.Time {
	switch freq {
	case domain.FrequencyWeekly:
		return first.AddDate(0, 0, 7*step)
	case domain.FrequencyBiWeekly:
		return first.AddDate(0, 0, 14*step)
	default:
		return addMonths(first, step)
	}
}

// addMonths advances the calendar month, clamping the day so a month-end date
// stays at month end instead of spilling into the next month.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	month += time.Month(n)
	for month > 12 {
		month -= 12
		year++
	}

	if last := daysIn(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
