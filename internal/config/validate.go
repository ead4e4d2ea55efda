package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
//
// Contact hours are deliberately NOT rejected here when unparsable: the
// compliance gate fails open on a bad window at evaluation time, and the same
// value may arrive per-debtor from the system of record. Validate only checks
// what would make the process unable to run at all.
func (c *Config) Validate() error {
	if c.Policy.MaxSettlementPercentage <= 0 || c.Policy.MaxSettlementPercentage > 1 {
		return fmt.Errorf("policy.max_settlement_percentage must be in (0, 1] (got %v)", c.Policy.MaxSettlementPercentage)
	}
	if c.Policy.MaxInstallmentMonths <= 0 {
		return fmt.Errorf("policy.max_installment_months must be > 0 (got %d)", c.Policy.MaxInstallmentMonths)
	}
	if c.Policy.MinimumInstallmentAmount < 0 {
		return fmt.Errorf("policy.minimum_installment_amount must be >= 0 (got %v)", c.Policy.MinimumInstallmentAmount)
	}

	if c.Verification.MaxAttempts <= 0 {
		return fmt.Errorf("verification.max_attempts must be > 0 (got %d)", c.Verification.MaxAttempts)
	}

	if c.Compliance.MaxDailyContactAttempts <= 0 {
		return fmt.Errorf("compliance.max_daily_contact_attempts must be > 0 (got %d)", c.Compliance.MaxDailyContactAttempts)
	}
	if c.Compliance.MaxWeeklyContactAttempts <= 0 {
		return fmt.Errorf("compliance.max_weekly_contact_attempts must be > 0 (got %d)", c.Compliance.MaxWeeklyContactAttempts)
	}

	days, err := ParseWeekdays(c.Compliance.ProhibitedContactDaysRaw)
	if err != nil {
		return fmt.Errorf("compliance.prohibited_contact_days: %w", err)
	}
	c.Compliance.ProhibitedContactDays = days

	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit.buffer_size must be > 0 (got %d)", c.Audit.BufferSize)
	}

	return nil
}

// ParseWeekdays parses a comma-separated list of English weekday names
// (e.g. "Sunday" or "Saturday,Sunday") into time.Weekday values.
// An empty string returns a nil slice.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}

	parts := strings.Split(raw, ",")
	days := make([]time.Weekday, 0, len(parts))

	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		d, ok := names[p]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", p)
		}
		days = append(days, d)
	}

	return days, nil
}
