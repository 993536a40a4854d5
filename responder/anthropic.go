package responder

import (
	"context"
	"strings"

	"chat-relay/domain"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// AnthropicPersonality backs a personality with the Anthropic Messages
// API. The multi-party room context is flattened into a single user
// turn because the Messages API expects a two-party conversation.
type AnthropicPersonality struct {
	client anthropic.Client
	name   string
	model  string
}

func newAnthropicPersonality(name, model, apiKey string) *AnthropicPersonality {
	return &AnthropicPersonality{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		name:   name,
		model:  model,
	}
}

func (p *AnthropicPersonality) Respond(ctx context.Context, roomTitle string, participants []string, history []domain.Message, newMessage string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(
				transcript(roomTitle, participants, history, newMessage))),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// AnthropicDescriptors builds the Anthropic-backed personality set.
// Returns nil when no API key is configured.
func AnthropicDescriptors(apiKey string) []Descriptor {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return []Descriptor{
		{
			Name:          "Claude",
			Description:   "Thoughtful assistant, good at long-form answers.",
			Intelligence:  8,
			Cost:          3,
			ContextWindow: 200_000,
			MaxOutput:     8_192,
			Capability:    newAnthropicPersonality("Claude", "claude-3-5-sonnet-20241022", apiKey),
		},
	}
}
