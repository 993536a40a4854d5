package responder

import (
	"context"
	"strings"

	"chat-relay/domain"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openAIMaxTokens = 300

// OpenAIPersonality backs a personality with the OpenAI chat
// completions API. Each ledger entry becomes one turn; entries sent by
// the personality itself replay as assistant turns.
type OpenAIPersonality struct {
	client openai.Client
	name   string
	model  string
}

func newOpenAIPersonality(name, model, apiKey string) *OpenAIPersonality {
	return &OpenAIPersonality{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		name:   name,
		model:  model,
	}
}

func (p *OpenAIPersonality) Respond(ctx context.Context, roomTitle string, participants []string, history []domain.Message, newMessage string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	for _, entry := range history {
		if entry.SenderName == p.name {
			messages = append(messages, openai.AssistantMessage(entry.Body))
			continue
		}
		messages = append(messages, openai.UserMessage(formatEntry(entry)))
	}
	messages = append(messages, openai.UserMessage(newMessage))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(p.model),
		Messages:  messages,
		MaxTokens: openai.Int(openAIMaxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	switch strings.ToLower(reply) {
	case "", "i'm not sure", "i don't know":
		// The model declined; silence is the contract for a non-answer.
		return "", nil
	}
	return reply, nil
}

// OpenAIDescriptors builds the OpenAI-backed personality set the
// relay ships with. Returns nil when no API key is configured.
func OpenAIDescriptors(apiKey string) []Descriptor {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return []Descriptor{
		{
			Name:          "ChatGPT",
			Description:   "General purpose conversationalist.",
			Intelligence:  5,
			Cost:          1,
			ContextWindow: 16_385,
			MaxOutput:     4_096,
			Capability:    newOpenAIPersonality("ChatGPT", "gpt-3.5-turbo", apiKey),
		},
		{
			Name:          "GPT-4o mini",
			Description:   "Fast, inexpensive assistant for everyday questions.",
			Intelligence:  6,
			Cost:          1,
			ContextWindow: 128_000,
			MaxOutput:     16_384,
			Capability:    newOpenAIPersonality("GPT-4o mini", "gpt-4o-mini", apiKey),
		},
		{
			Name:          "o1",
			Description:   "Slow, deliberate reasoner for hard questions.",
			Intelligence:  9,
			Cost:          8,
			ContextWindow: 200_000,
			MaxOutput:     100_000,
			Capability:    newOpenAIPersonality("o1", "o1", apiKey),
		},
		{
			Name:          "GPT-4.5 preview",
			Description:   "Large general model, strongest on open-ended tasks.",
			Intelligence:  8,
			Cost:          5,
			ContextWindow: 128_000,
			MaxOutput:     16_384,
			Capability:    newOpenAIPersonality("GPT-4.5 preview", "gpt-4.5-preview", apiKey),
		},
	}
}
