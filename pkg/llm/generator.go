// Package llm defines the chat generation abstraction used by the curator.
package llm

import "context"

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(text string) Message {
	return Message{Role: "system", Content: text}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(text string) Message {
	return Message{Role: "user", Content: text}
}

// Generator produces a completion for a conversation.
type Generator interface {
	// Generate runs the conversation through the model and returns the
	// assistant's reply text.
	Generate(ctx context.Context, messages []Message) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}
