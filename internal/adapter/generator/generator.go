// Package generator produces proposed negotiation actions by calling Claude.
// The model only proposes; every proposal goes through response validation
// before anything reaches the debtor.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// TurnContext is everything the model sees for one turn.
type TurnContext struct {
	State            domain.ConversationState
	Channel          domain.Channel
	DebtorName       string
	IdentityVerified bool
	CurrentBalance   float64
	Currency         string
	DaysOverdue      int
	RecentMessages   []domain.Message
	Snippets         []string
	UserMessage      string
}

// Generator calls the Anthropic API and parses the response into a
// domain.ProposedAction.
type Generator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	log       *slog.Logger
}

// New creates a generator with its own API client.
func New(apiKey, model string, maxTokens int64, timeout time.Duration, log *slog.Logger) *Generator {
	return &Generator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		timeout:   timeout,
		log:       log,
	}
}

// Propose generates an action for the current turn. All failures (API errors,
// empty responses, unparsable output) come back as a domain.GenerationError so
// the caller can substitute its fallback.
func (g *Generator) Propose(ctx context.Context, tc TurnContext) (domain.ProposedAction, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt, err := buildPrompt(tc)
	if err != nil {
		return domain.ProposedAction{}, &domain.GenerationError{Err: fmt.Errorf("build prompt: %w", err)}
	}

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return domain.ProposedAction{}, &domain.GenerationError{Err: fmt.Errorf("api call: %w", err)}
	}

	if len(msg.Content) == 0 {
		return domain.ProposedAction{}, &domain.GenerationError{Err: fmt.Errorf("empty response")}
	}

	action, err := parseProposal(msg.Content[0].Text)
	if err != nil {
		g.log.Warn("unparsable generator response",
			slog.String("conversation_state", tc.State.String()),
			slog.Any("error", err),
		)
		return domain.ProposedAction{}, &domain.GenerationError{Err: err}
	}

	return action, nil
}

// turnContextJSON is the structured context embedded in the prompt.
type turnContextJSON struct {
	State            string        `json:"conversation_state"`
	Channel          string        `json:"channel"`
	DebtorName       string        `json:"debtor_name"`
	IdentityVerified bool          `json:"identity_verified"`
	CurrentBalance   float64       `json:"current_balance"`
	Currency         string        `json:"currency"`
	DaysOverdue      int           `json:"days_overdue"`
	History          []historyItem `json:"recent_history"`
	Snippets         []string      `json:"reference_snippets,omitempty"`
}

type historyItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildPrompt(tc TurnContext) (string, error) {
	ctxJSON := turnContextJSON{
		State:            tc.State.String(),
		Channel:          tc.Channel.String(),
		DebtorName:       tc.DebtorName,
		IdentityVerified: tc.IdentityVerified,
		CurrentBalance:   tc.CurrentBalance,
		Currency:         tc.Currency,
		DaysOverdue:      tc.DaysOverdue,
		Snippets:         tc.Snippets,
	}
	for _, m := range tc.RecentMessages {
		ctxJSON.History = append(ctxJSON.History, historyItem{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	contextBytes, err := json.MarshalIndent(ctxJSON, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}

	return fmt.Sprintf(`You are a professional, empathetic debt collection negotiation assistant.

Conversation context:
%s

The debtor's latest message:
%s

Decide the next action. Respect these rules:
- Never threaten, never mention legal action, lawsuits, or consequences
- Never discuss balance or amounts unless identity_verified is true
- Prefer cooperative, respectful language
- Propose a payment plan only when the debtor signals willingness to pay
- Escalate when the debtor requests a human, disputes the debt, or shows distress

Output ONLY a valid JSON object matching this exact schema:
{
  "action": "<inform|collect_payment|propose_plan|acknowledge|request_info|verify_identity|escalate|close>",
  "message": "<what to say to the debtor>",
  "plan": {
    "kind": "<installment|settlement|one_time>",
    "amount": <total amount as number>,
    "installments": <integer, 1 for settlement and one_time>,
    "first_due_date": "<YYYY-MM-DD or empty>",
    "frequency": "<weekly|bi-weekly|monthly>"
  },
  "confidence": <0.0 to 1.0>,
  "escalate": <true|false>
}

Set "plan" to null unless the action is propose_plan.
Output ONLY the JSON, no markdown, no explanations.`, contextBytes, tc.UserMessage), nil
}
