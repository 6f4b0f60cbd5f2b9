// Package scorer holds the Claude-backed duplicate confidence scorer and
// occupancy classifier.
package scorer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/premises-cli/internal/records"
	"github.com/sells-group/premises-cli/pkg/anthropic"
)

// ConservativeScore is the duplicate confidence used when scoring fails.
// Low enough to let the row through rather than silently dropping it.
const ConservativeScore = 3

// ScoreRequest describes the new record being compared against an existing
// premises row.
type ScoreRequest struct {
	Name         string
	AddressLine1 string
	City         string
	State        string
}

// Confidence scores how likely a new record and an existing premises row
// represent the same business, from 1 (different) to 10 (same).
type Confidence interface {
	Score(ctx context.Context, req ScoreRequest, existing records.Premise) (int, error)
}

const confidencePrompt = `You are comparing a new premises record against an existing database record to determine if they represent the SAME BUSINESS.

IMPORTANT: These records are already at the same/nearby location (within 100 meters). Your job is to determine if they represent the SAME BUSINESS or DIFFERENT businesses at the same location.

New Record:
- Name: %s
- Address: %s
- City: %s
- State: %s

Existing Record (from database):
- Name: %s
- Address: %s

Rate the confidence (1-10) that these are the SAME BUSINESS (not just same location):

SCORING RULES (NAME IS THE PRIMARY FACTOR):
- 10: Exact name match or trivial variations (capitalization, punctuation, "Inc" vs "LLC")
- 8-9: Clearly the same business with minor name variations (abbreviations like "St" vs "Street", "&" vs "and")
- 6-7: Possibly same business with location/branch suffixes ("Main St Store" vs "Main St Store - Branch", "Nike" vs "Nike Location")
- 5-6: Possibly same business (partial name match, could be rebrand or acquisition)
- 4-5: Probably different businesses (significantly different names, same location)
- 1-3: Definitely different businesses (completely different names)

CRITICAL RULES:
- Score 8+ ONLY if the business names are clearly variations of the SAME business name
- Location/branch suffixes ("- Branch", " Location", " #2", " Downtown") should score 6-7, NOT 8+
- Different business names at the same address = score 1-7, NOT 8+
- Examples of score 1-3: "McDonald's" vs "Starbucks", "Take Maru Sushi" vs "New Business LLC"
- Examples of score 6-7: "Nike Store" vs "Nike Store - Branch", "Starbucks" vs "Starbucks Downtown"
- Examples of score 8+: "McDonald's Restaurant" vs "McDonalds", "Nike Inc" vs "Nike LLC"

Respond with ONLY a single number from 1-10. No explanation.`

// ClaudeConfidence implements Confidence using the Anthropic API.
type ClaudeConfidence struct {
	client anthropic.Client
	model  string
}

// NewConfidence creates a Claude-backed confidence scorer.
func NewConfidence(client anthropic.Client, model string) *ClaudeConfidence {
	return &ClaudeConfidence{client: client, model: model}
}

var firstNumber = regexp.MustCompile(`\d+`)

func (c *ClaudeConfidence) Score(ctx context.Context, req ScoreRequest, existing records.Premise) (int, error) {
	prompt := fmt.Sprintf(confidencePrompt,
		orNA(req.Name), orNA(req.AddressLine1), orNA(req.City), orNA(req.State),
		orNA(existing.PremiseName), orNA(existing.AddressLine1))

	temp := 0.0
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   16,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return 0, eris.Wrap(err, "scorer: confidence request")
	}

	text := resp.Text()
	match := firstNumber.FindString(text)
	if match == "" {
		return 0, eris.Errorf("scorer: no number in response %q", text)
	}
	score, err := strconv.Atoi(match)
	if err != nil {
		return 0, eris.Wrapf(err, "scorer: parse score %q", match)
	}
	if score < 1 {
		score = 1
	} else if score > 10 {
		score = 10
	}

	resp.Usage.LogCost(c.model, "confidence_scoring")
	zap.L().Debug("confidence scored",
		zap.String("new_name", req.Name),
		zap.String("existing_name", existing.PremiseName),
		zap.Int("score", score),
	)
	return score, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var _ Confidence = (*ClaudeConfidence)(nil)
