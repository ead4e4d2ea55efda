package conversation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collectaai/collecta-backend/internal/adapter/postgres/conversation"
	"github.com/collectaai/collecta-backend/internal/adapter/postgres/testhelper"
	"github.com/collectaai/collecta-backend/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T) (*conversation.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return conversation.New(pool), pool
}

// ---------------------------------------------------------------------------
// Create + GetByID + GetBySession
// ---------------------------------------------------------------------------

func TestRepo_Create_AndGet(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	debtor := testhelper.SeedDebtor(t, pool)
	account := testhelper.SeedAccount(t, pool, debtor.ID)

	conv := domain.Conversation{
		ID:        uuid.New(),
		SessionID: "sess-" + uuid.New().String()[:8],
		DebtorID:  debtor.ID,
		AccountID: account.ID,
		State:     domain.ConversationStateInitiated,
		Channel:   domain.ChannelChat,
		SessionData: map[string]any{
			"locale": "en-US",
		},
	}

	created, err := repo.Create(ctx, conv)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if created.State != domain.ConversationStateInitiated {
		t.Errorf("State mismatch: got %s, want %s", created.State, domain.ConversationStateInitiated)
	}
	if created.IdentityVerified {
		t.Error("IdentityVerified: expected false on a new conversation")
	}
	if created.VerificationAttempts != 0 {
		t.Errorf("VerificationAttempts: got %d, want 0", created.VerificationAttempts)
	}
	if created.SessionData["locale"] != "en-US" {
		t.Errorf("SessionData not round-tripped: got %v", created.SessionData)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByID ID mismatch: got %s, want %s", got.ID, created.ID)
	}

	bySession, err := repo.GetBySession(ctx, account.ID, conv.SessionID)
	if err != nil {
		t.Fatalf("GetBySession: unexpected error: %v", err)
	}
	if bySession.ID != created.ID {
		t.Errorf("GetBySession ID mismatch: got %s, want %s", bySession.ID, created.ID)
	}
}

func TestRepo_Create_DuplicateSession(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	debtor := testhelper.SeedDebtor(t, pool)
	account := testhelper.SeedAccount(t, pool, debtor.ID)

	sessionID := "sess-" + uuid.New().String()[:8]
	first := domain.Conversation{
		ID:        uuid.New(),
		SessionID: sessionID,
		DebtorID:  debtor.ID,
		AccountID: account.ID,
		State:     domain.ConversationStateInitiated,
		Channel:   domain.ChannelChat,
	}
	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create first: unexpected error: %v", err)
	}

	second := first
	second.ID = uuid.New()
	_, err := repo.Create(ctx, second)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("Create duplicate session: expected ErrAlreadyExists, got %v", err)
	}
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestRepo_Update(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	debtor := testhelper.SeedDebtor(t, pool)
	account := testhelper.SeedAccount(t, pool, debtor.ID)
	conv := testhelper.SeedConversation(t, pool, debtor.ID, account.ID, domain.ConversationStateInitiated)

	reason := "verification attempts exhausted"
	now := time.Now().UTC().Truncate(time.Microsecond)

	conv.State = domain.ConversationStateEscalated
	conv.VerificationAttempts = 3
	conv.EscalationReason = &reason
	conv.EscalationDate = &now
	conv.LastActivity = now

	updated, err := repo.Update(ctx, conv)
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}
	if updated.State != domain.ConversationStateEscalated {
		t.Errorf("State: got %s, want %s", updated.State, domain.ConversationStateEscalated)
	}
	if updated.VerificationAttempts != 3 {
		t.Errorf("VerificationAttempts: got %d, want 3", updated.VerificationAttempts)
	}
	if updated.EscalationReason == nil || *updated.EscalationReason != reason {
		t.Errorf("EscalationReason: got %v, want %q", updated.EscalationReason, reason)
	}
	if updated.EscalationDate == nil || !updated.EscalationDate.Equal(now) {
		t.Errorf("EscalationDate: got %v, want %v", updated.EscalationDate, now)
	}
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

func TestRepo_AppendMessage_AndRecent(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	debtor := testhelper.SeedDebtor(t, pool)
	account := testhelper.SeedAccount(t, pool, debtor.ID)
	conv := testhelper.SeedConversation(t, pool, debtor.ID, account.ID, domain.ConversationStateActiveNegotiation)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	confidence := 0.9

	contents := []string{"m1", "m2", "m3", "m4", "m5"}
	for i, content := range contents {
		role := domain.MessageRoleUser
		if i%2 == 1 {
			role = domain.MessageRoleAssistant
		}
		msg := domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           role,
			Content:        content,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if role == domain.MessageRoleAssistant {
			msg.Confidence = &confidence
			msg.ComplianceTags = []string{"validated"}
		}
		if _, err := repo.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage %q: unexpected error: %v", content, err)
		}
	}

	recent, err := repo.GetRecentMessages(ctx, conv.ID, 3)
	if err != nil {
		t.Fatalf("GetRecentMessages: unexpected error: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("GetRecentMessages: got %d messages, want 3", len(recent))
	}
	// Last three in chronological order.
	for i, want := range []string{"m3", "m4", "m5"} {
		if recent[i].Content != want {
			t.Errorf("recent[%d]: got %q, want %q", i, recent[i].Content, want)
		}
	}
	if recent[0].ComplianceTags == nil || recent[0].ComplianceTags[0] != "validated" {
		t.Errorf("compliance tags not round-tripped: got %v", recent[0].ComplianceTags)
	}

	all, err := repo.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages: unexpected error: %v", err)
	}
	if len(all) != len(contents) {
		t.Fatalf("ListMessages: got %d messages, want %d", len(all), len(contents))
	}
}

// ---------------------------------------------------------------------------
// Frequency counting
// ---------------------------------------------------------------------------

func TestRepo_CountOpenedSince(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	debtor := testhelper.SeedDebtor(t, pool)
	account := testhelper.SeedAccount(t, pool, debtor.ID)

	for range 3 {
		testhelper.SeedConversation(t, pool, debtor.ID, account.ID, domain.ConversationStateInitiated)
	}

	count, err := repo.CountOpenedSince(ctx, debtor.ID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountOpenedSince: unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("CountOpenedSince: got %d, want 3", count)
	}

	none, err := repo.CountOpenedSince(ctx, debtor.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CountOpenedSince future: unexpected error: %v", err)
	}
	if none != 0 {
		t.Errorf("CountOpenedSince future: got %d, want 0", none)
	}
}

// ---------------------------------------------------------------------------
// ListByAccount
// ---------------------------------------------------------------------------

func TestRepo_ListByAccount(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	debtor := testhelper.SeedDebtor(t, pool)
	account := testhelper.SeedAccount(t, pool, debtor.ID)

	testhelper.SeedConversation(t, pool, debtor.ID, account.ID, domain.ConversationStateClosed)
	testhelper.SeedConversation(t, pool, debtor.ID, account.ID, domain.ConversationStateClosed)
	testhelper.SeedConversation(t, pool, debtor.ID, account.ID, domain.ConversationStateEscalated)

	all, total, err := repo.ListByAccount(ctx, account.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListByAccount: unexpected error: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("ListByAccount: got %d/%d, want 3/3", len(all), total)
	}

	closed, total, err := repo.ListByAccount(ctx, account.ID,
		[]domain.ConversationState{domain.ConversationStateClosed}, 10, 0)
	if err != nil {
		t.Fatalf("ListByAccount filtered: unexpected error: %v", err)
	}
	if total != 2 || len(closed) != 2 {
		t.Errorf("ListByAccount filtered: got %d/%d, want 2/2", len(closed), total)
	}
	for _, c := range closed {
		if c.State != domain.ConversationStateClosed {
			t.Errorf("filtered result has state %s", c.State)
		}
	}

	page, total, err := repo.ListByAccount(ctx, account.ID, nil, 2, 2)
	if err != nil {
		t.Fatalf("ListByAccount paged: unexpected error: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Errorf("ListByAccount paged: got %d items, total %d; want 1 item, total 3", len(page), total)
	}
}
