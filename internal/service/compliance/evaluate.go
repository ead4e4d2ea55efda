package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// Evaluate runs the ordered contact checks for a debtor: opt-out, contact
// window, daily frequency, weekly frequency. The first failed check blocks
// contact and later checks are skipped. All executed checks are returned in
// the decision.
func (s *Service) Evaluate(ctx context.Context, debtor domain.Debtor) (domain.ContactDecision, error) {
	var checks []domain.ComplianceCheck

	optOut := checkOptOut(debtor)
	checks = append(checks, optOut)
	if !optOut.Passed {
		return blocked(checks, "debtor has opted out of communications", optOut.Severity), nil
	}

	window := s.checkContactWindow(debtor)
	checks = append(checks, window)
	if !window.Passed {
		return blocked(checks, window.Details, window.Severity), nil
	}

	daily, err := s.checkDailyFrequency(ctx, debtor)
	if err != nil {
		return domain.ContactDecision{}, fmt.Errorf("daily frequency check: %w", err)
	}
	checks = append(checks, daily)
	if !daily.Passed {
		return blocked(checks, daily.Details, daily.Severity), nil
	}

	weekly, err := s.checkWeeklyFrequency(ctx, debtor)
	if err != nil {
		return domain.ContactDecision{}, fmt.Errorf("weekly frequency check: %w", err)
	}
	checks = append(checks, weekly)
	if !weekly.Passed {
		return blocked(checks, weekly.Details, weekly.Severity), nil
	}

	return domain.ContactDecision{Allowed: true, Checks: checks}, nil
}

func blocked(checks []domain.ComplianceCheck, reason string, severity domain.CheckSeverity) domain.ContactDecision {
	return domain.ContactDecision{
		Allowed:  false,
		Reason:   reason,
		Severity: severity,
		Checks:   checks,
	}
}

func checkOptOut(debtor domain.Debtor) domain.ComplianceCheck {
	if debtor.OptedOut() {
		return domain.ComplianceCheck{
			Name:     "opt_out_status",
			Passed:   false,
			Details:  "debtor opted out on " + debtor.OptOutDate.Format(time.RFC3339),
			Severity: domain.SeverityCritical,
		}
	}
	return domain.ComplianceCheck{
		Name:    "opt_out_status",
		Passed:  true,
		Details: "debtor has not opted out",
	}
}

// checkContactWindow verifies the current local time against the allowed
// contact window and prohibited days. The debtor's own hours override the
// configured defaults. Unparsable hours or an unknown timezone fail open:
// blocking contact on a configuration mistake would be worse than a late call.
func (s *Service) checkContactWindow(debtor domain.Debtor) domain.ComplianceCheck {
	now := s.now()

	loc, err := time.LoadLocation(debtor.Timezone)
	if err != nil {
		s.log.Warn("unknown debtor timezone, using UTC",
			slog.String("timezone", debtor.Timezone),
			slog.String("debtor_id", debtor.ID.String()),
		)
		loc = time.UTC
	}
	local := now.In(loc)

	for _, d := range s.cfg.ProhibitedDays {
		if local.Weekday() == d {
			return domain.ComplianceCheck{
				Name:     "contact_time",
				Passed:   false,
				Details:  "contact not allowed on " + d.String(),
				Severity: domain.SeverityWarning,
			}
		}
	}

	start := debtor.ContactHoursStart
	if start == "" {
		start = s.cfg.ContactHoursStart
	}
	end := debtor.ContactHoursEnd
	if end == "" {
		end = s.cfg.ContactHoursEnd
	}

	startMin, err1 := parseClock(start)
	endMin, err2 := parseClock(end)
	if err1 != nil || err2 != nil {
		s.log.Warn("unparsable contact hours, allowing contact",
			slog.String("start", start),
			slog.String("end", end),
		)
		return domain.ComplianceCheck{
			Name:    "contact_time",
			Passed:  true,
			Details: "contact hours unparsable, allowing contact",
		}
	}

	// The window is half-open: the start minute is allowed, the end minute
	// is not.
	nowMin := local.Hour()*60 + local.Minute()
	if nowMin < startMin || nowMin >= endMin {
		return domain.ComplianceCheck{
			Name:     "contact_time",
			Passed:   false,
			Details:  fmt.Sprintf("contact only allowed between %s and %s", start, end),
			Severity: domain.SeverityWarning,
		}
	}

	return domain.ComplianceCheck{
		Name:    "contact_time",
		Passed:  true,
		Details: "contact time is within allowed hours",
	}
}

func (s *Service) checkDailyFrequency(ctx context.Context, debtor domain.Debtor) (domain.ComplianceCheck, error) {
	loc, err := time.LoadLocation(debtor.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := s.now().In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	count, err := s.conversations.CountOpenedSince(ctx, debtor.ID, dayStart)
	if err != nil {
		return domain.ComplianceCheck{}, err
	}

	if count >= s.cfg.MaxDailyAttempts {
		return domain.ComplianceCheck{
			Name:     "daily_contact_frequency",
			Passed:   false,
			Details:  fmt.Sprintf("maximum daily contact attempts (%d) exceeded", s.cfg.MaxDailyAttempts),
			Severity: domain.SeverityWarning,
		}, nil
	}

	return domain.ComplianceCheck{
		Name:    "daily_contact_frequency",
		Passed:  true,
		Details: fmt.Sprintf("daily contact attempts: %d/%d", count, s.cfg.MaxDailyAttempts),
	}, nil
}

func (s *Service) checkWeeklyFrequency(ctx context.Context, debtor domain.Debtor) (domain.ComplianceCheck, error) {
	since := s.now().AddDate(0, 0, -7)

	count, err := s.conversations.CountOpenedSince(ctx, debtor.ID, since)
	if err != nil {
		return domain.ComplianceCheck{}, err
	}

	if count >= s.cfg.MaxWeeklyAttempts {
		return domain.ComplianceCheck{
			Name:     "weekly_contact_frequency",
			Passed:   false,
			Details:  fmt.Sprintf("maximum weekly contact attempts (%d) exceeded", s.cfg.MaxWeeklyAttempts),
			Severity: domain.SeverityWarning,
		}, nil
	}

	return domain.ComplianceCheck{
		Name:    "weekly_contact_frequency",
		Passed:  true,
		Details: fmt.Sprintf("weekly contact attempts: %d/%d", count, s.cfg.MaxWeeklyAttempts),
	}, nil
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
