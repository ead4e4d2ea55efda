package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedDebtor creates a debtor with consent granted and no opt-out.
// Returns a filled domain.Debtor.
func SeedDebtor(t *testing.T, pool *pgxpool.Pool) domain.Debtor {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	debtor := domain.Debtor{
		ID:               uuid.New(),
		Name:             "Test Debtor " + suffix,
		Email:            "debtor-" + suffix + "@example.com",
		Phone:            "+1555" + suffix[:7],
		IDLastFour:       "1234",
		ConsentStatus:    domain.ConsentGranted,
		Timezone:         "UTC",
		PreferredChannel: domain.ChannelChat,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO debtors (id, name, email, phone, id_last_four, consent_status, timezone, preferred_channel, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		debtor.ID, debtor.Name, debtor.Email, debtor.Phone, debtor.IDLastFour,
		string(debtor.ConsentStatus), debtor.Timezone, string(debtor.PreferredChannel),
		debtor.CreatedAt, debtor.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDebtor insert: %v", err)
	}

	return debtor
}

// SeedAccount creates an overdue account for the given debtor with a $1200
// balance and a recorded last payment of $150. Returns a filled domain.Account.
func SeedAccount(t *testing.T, pool *pgxpool.Pool, debtorID uuid.UUID) domain.Account {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	lastPayment := now.AddDate(0, -3, 0)
	account := domain.Account{
		ID:                uuid.New(),
		DebtorID:          debtorID,
		AccountNumber:     "ACC-" + suffix,
		PrincipalAmount:   1500,
		CurrentBalance:    1200,
		Currency:          "USD",
		OriginationDate:   now.AddDate(-1, 0, 0),
		DueDate:           now.AddDate(0, -2, 0),
		DaysOverdue:       90,
		LastPaymentDate:   &lastPayment,
		LastPaymentAmount: 150,
		Status:            domain.AccountStatusOverdue,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO accounts (id, debtor_id, account_number, principal_amount, current_balance, currency,
		                       origination_date, due_date, days_overdue, last_payment_date, last_payment_amount,
		                       status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		account.ID, account.DebtorID, account.AccountNumber, account.PrincipalAmount,
		account.CurrentBalance, account.Currency, account.OriginationDate, account.DueDate,
		account.DaysOverdue, account.LastPaymentDate, account.LastPaymentAmount,
		string(account.Status), account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAccount insert: %v", err)
	}

	return account
}

// SeedConversation creates a conversation in the given state.
// Returns a filled domain.Conversation.
func SeedConversation(t *testing.T, pool *pgxpool.Pool, debtorID, accountID uuid.UUID, state domain.ConversationState) domain.Conversation {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	conv := domain.Conversation{
		ID:           uuid.New(),
		SessionID:    "sess-" + uniqueSuffix(),
		DebtorID:     debtorID,
		AccountID:    accountID,
		State:        state,
		Channel:      domain.ChannelChat,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO conversations (id, session_id, debtor_id, account_id, state, channel, last_activity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		conv.ID, conv.SessionID, conv.DebtorID, conv.AccountID, string(conv.State),
		string(conv.Channel), conv.LastActivity, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedConversation insert: %v", err)
	}

	return conv
}
