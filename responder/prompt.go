package responder

import (
	"fmt"
	"strings"

	"chat-relay/domain"
)

// systemPrompt instructs model-backed personalities to behave like one
// participant among many and to stay silent by default. Replies the
// model suppresses come back empty and are dropped by the relay's
// acceptance filter.
const systemPrompt = `You are participating in a busy multi-person chat room. Messages are numbered, and each message shows the name of the sender before the message content.

CRITICAL RULES:
- Remain SILENT unless your response is CLEARLY required.
- Only respond when your name is directly mentioned, or when someone asks a factual question or requests help that is clearly directed at you.
- Ignore casual greetings unless you are directly addressed.
- Do NOT act as a moderator or conversation guide. You are only a participant.
- If you are unsure whether to respond, stay silent. Reply with an empty message to stay silent.

When responding, be concise, factual, and helpful. Avoid filler pleasantries.`

// formatEntry renders one ledger entry the way personalities see it:
// "#12 Alice: hello there".
func formatEntry(msg domain.Message) string {
	return fmt.Sprintf("#%d %s: %s", msg.Seq, msg.SenderName, msg.Body)
}

// transcript flattens the room context into a single prompt block for
// providers whose message API does not accept free-form multi-party
// turns.
func transcript(roomTitle string, participants []string, history []domain.Message, newMessage string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Room: %s\n", roomTitle))
	sb.WriteString(fmt.Sprintf("Participants: %s\n\n", strings.Join(participants, ", ")))
	for _, msg := range history {
		sb.WriteString(formatEntry(msg))
		sb.WriteString("\n")
	}
	sb.WriteString("\nNew message: ")
	sb.WriteString(newMessage)
	return sb.String()
}
