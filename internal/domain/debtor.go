package domain

import (
	"time"

	"github.com/google/uuid"
)

// Debtor is the person owing a debt. Owned by the system of record; every
// component reads it, only opt-out handling mutates it.
type Debtor struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Phone         string
	IDLastFour    string // trailing digits of the government identifier, verification only
	ConsentStatus ConsentStatus
	ConsentDate   *time.Time
	OptOutDate    *time.Time

	// Per-debtor contact window in "HH:MM" local time. Empty values fall
	// back to the configured defaults.
	ContactHoursStart string
	ContactHoursEnd   string
	Timezone          string

	PreferredChannel Channel
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OptedOut reports whether the debtor has revoked contact permission.
// Once set, the opt-out date is never cleared.
func (d Debtor) OptedOut() bool {
	return d.OptOutDate != nil
}
