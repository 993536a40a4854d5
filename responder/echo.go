package responder

import (
	"context"

	"chat-relay/domain"
)

// Echo repeats the incoming message verbatim. It exists for local
// testing of the relay pipeline without any network dependency.
type Echo struct{}

func (Echo) Respond(_ context.Context, _ string, _ []string, _ []domain.Message, newMessage string) (string, error) {
	return newMessage, nil
}

// NewEcho returns the built-in echo personality descriptor.
func NewEcho() Descriptor {
	return Descriptor{
		Name:         "Echo Bot",
		Description:  "Repeats whatever was just said. Useful for testing.",
		Intelligence: 1,
		Cost:         0,
		Capability:   Echo{},
	}
}
