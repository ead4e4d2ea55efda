package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// proposalJSON mirrors the schema the model is asked to produce.
type proposalJSON struct {
	Action     string    `json:"action"`
	Message    string    `json:"message"`
	Plan       *planJSON `json:"plan"`
	Confidence float64   `json:"confidence"`
	Escalate   bool      `json:"escalate"`
}

type planJSON struct {
	Kind         string  `json:"kind"`
	Amount       float64 `json:"amount"`
	Installments int     `json:"installments"`
	FirstDueDate string  `json:"first_due_date"`
	Frequency    string  `json:"frequency"`
}

// parseProposal extracts and validates the JSON proposal from raw model output.
func parseProposal(raw string) (domain.ProposedAction, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return domain.ProposedAction{}, err
	}

	var p proposalJSON
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return domain.ProposedAction{}, fmt.Errorf("unmarshal proposal: %w", err)
	}

	action := domain.ActionKind(p.Action)
	if !action.IsValid() {
		return domain.ProposedAction{}, fmt.Errorf("unknown action %q", p.Action)
	}
	if strings.TrimSpace(p.Message) == "" {
		return domain.ProposedAction{}, fmt.Errorf("proposal has empty message")
	}

	out := domain.ProposedAction{
		Action:     action,
		Message:    p.Message,
		Confidence: clamp01(p.Confidence),
		Escalate:   p.Escalate || action == domain.ActionEscalate,
	}

	if p.Plan != nil {
		kind := domain.PlanKind(p.Plan.Kind)
		if !kind.IsValid() {
			return domain.ProposedAction{}, fmt.Errorf("unknown plan kind %q", p.Plan.Kind)
		}
		frequency := domain.PaymentFrequency(p.Plan.Frequency)
		if p.Plan.Frequency != "" && !frequency.IsValid() {
			return domain.ProposedAction{}, fmt.Errorf("unknown plan frequency %q", p.Plan.Frequency)
		}
		out.Plan = &domain.PlanProposal{
			Kind:         kind,
			Amount:       p.Plan.Amount,
			Installments: p.Plan.Installments,
			FirstDueDate: p.Plan.FirstDueDate,
			Frequency:    frequency,
		}
	}

	return out, nil
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
