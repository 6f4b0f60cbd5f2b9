package scorer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/premises-cli/internal/records"
	"github.com/sells-group/premises-cli/pkg/anthropic"
)

// Occupancy selects the best occupancy category for a business from the
// categories valid in its state. Implementations must return the ID of one
// of the given options.
type Occupancy interface {
	Classify(ctx context.Context, placesType, businessName string, options []records.Category) (int64, error)
}

const occupancyPrompt = `You are classifying a premises location into an occupancy type category for fire safety regulation purposes.

Business Information:
- Name: %s
- Google Places Type: %s

Available Occupancy Types:
%s

Select the BEST matching occupancy type ID from the list above.

Guidelines:
- Match the Google Places type to the most appropriate occupancy category
- Consider the business name for additional context
- Choose the most specific applicable category
- If multiple could apply, choose the most common/general one

Respond with ONLY the occupancy type ID number. No explanation.`

// ClaudeOccupancy implements Occupancy using the Anthropic API.
type ClaudeOccupancy struct {
	client anthropic.Client
	model  string
}

// NewOccupancy creates a Claude-backed occupancy classifier.
func NewOccupancy(client anthropic.Client, model string) *ClaudeOccupancy {
	return &ClaudeOccupancy{client: client, model: model}
}

func (c *ClaudeOccupancy) Classify(ctx context.Context, placesType, businessName string, options []records.Category) (int64, error) {
	if len(options) == 0 {
		return 0, eris.New("scorer: no occupancy options")
	}

	var sb strings.Builder
	for _, opt := range options {
		fmt.Fprintf(&sb, "- ID %d: %s\n", opt.ID, opt.Name)
	}

	prompt := fmt.Sprintf(occupancyPrompt, orNA(businessName), orNA(placesType), strings.TrimRight(sb.String(), "\n"))

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
		return 0, eris.Wrap(err, "scorer: occupancy request")
	}

	text := resp.Text()
	match := firstNumber.FindString(text)
	if match == "" {
		return 0, eris.Errorf("scorer: no number in response %q", text)
	}
	id, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "scorer: parse occupancy id %q", match)
	}

	for _, opt := range options {
		if opt.ID == id {
			resp.Usage.LogCost(c.model, "occupancy_classification")
			return id, nil
		}
	}

	// Invalid selection falls back to the first option.
	zap.L().Warn("occupancy classifier returned unknown id",
		zap.Int64("id", id),
		zap.String("business", businessName),
	)
	return options[0].ID, nil
}

var _ Occupancy = (*ClaudeOccupancy)(nil)
