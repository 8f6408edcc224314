package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/nudgebot/api/internal/timeexpr"
	"github.com/nudgebot/api/pkg/errors"
)

// Client wraps the chat-completion API for the two language tasks the
// assistant needs: extracting a time expression from a message and guessing
// an IANA zone from a location description.
type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

const extractPromptTemplate = `You extract reminder details from a WhatsApp message.

Current time in the user's timezone: %s

Return JSON with:
- title: short imperative summary of what to remind about (never empty; derive from the message)
- body: extra detail, or ""
- expression: the time expression, one of:
  - {"kind":"specific_date","date":"YYYY-MM-DD","time":"HH:MM"} (omit fields the user did not give)
  - {"kind":"relative_offset","amount":N,"unit":"minutes|hours|days"}
  - {"kind":"relative_day","day":"today|tomorrow","time":"HH:MM"}
  - {"kind":"weekday","weekday":0-6,"time":"HH:MM"} (0=Sunday)
  - {"kind":"recurring","recurrence":{"kind":"daily|weekly|monthly|yearly","days":[0-6...],"until":"YYYY-MM-DD"},"time":"HH:MM","date":"YYYY-MM-DD"}
- missing: list of fields you could not determine ("time_expression", "title")

Do not resolve relative words to dates yourself; report them structurally.`

var extractSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"body": {"type": "string"},
		"expression": {
			"type": "object",
			"properties": {
				"kind": {"type": "string", "enum": ["specific_date", "relative_offset", "relative_day", "weekday", "recurring"]},
				"date": {"type": "string"},
				"time": {"type": "string"},
				"amount": {"type": "integer"},
				"unit": {"type": "string", "enum": ["minutes", "hours", "days"]},
				"day": {"type": "string", "enum": ["today", "tomorrow"]},
				"weekday": {"type": "integer", "minimum": 0, "maximum": 6},
				"recurrence": {
					"type": "object",
					"properties": {
						"kind": {"type": "string", "enum": ["daily", "weekly", "monthly", "yearly"]},
						"days": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 6}},
						"until": {"type": "string"}
					},
					"required": ["kind"],
					"additionalProperties": false
				}
			},
			"required": ["kind"],
			"additionalProperties": false
		},
		"missing": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["title"],
	"additionalProperties": false
}`)

// Extraction is the structured reading of one inbound message.
type Extraction struct {
	Title      string               `json:"title"`
	Body       string               `json:"body"`
	Expression *timeexpr.Expression `json:"expression"`
	Missing    []string             `json:"missing"`
}

// ExtractReminder reads a free-text message into an Extraction. localNow is
// the current time in the sender's zone, given to the model so words like
// "tonight" are interpreted against the right clock.
func (c *Client) ExtractReminder(ctx context.Context, message string, localNow time.Time) (*Extraction, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(extractPromptTemplate, localNow.Format("2006-01-02 15:04 (Monday)")),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: message,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "reminder_extraction",
				Schema: extractSchema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.ErrUnresolvedExpression
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse extraction: %w", err)
	}
	return &extraction, nil
}

// InferTimezone guesses an IANA zone from a location description. The caller
// validates the result against the zone database before trusting it.
func (c *Client) InferTimezone(ctx context.Context, locationText string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Given a location or timezone description, reply with the single " +
					"most likely IANA timezone identifier (e.g. Asia/Kolkata). " +
					"Reply with the identifier only, or UNKNOWN if you cannot tell.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: locationText,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.ErrInvalidTimezone
	}

	zone := strings.TrimSpace(resp.Choices[0].Message.Content)
	if zone == "" || strings.EqualFold(zone, "UNKNOWN") {
		return "", errors.ErrInvalidTimezone
	}
	return zone, nil
}
