package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessage appends a message to the conversation history. The store
	// trims the oldest entries once the per-conversation cap is exceeded.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the conversation history for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// RecentUserTurns returns up to n most recent user messages, newest last.
func (h *ConversationHistory) RecentUserTurns(n int) []string {
	if h == nil || n <= 0 {
		return nil
	}
	var turns []string
	for _, m := range h.Messages {
		if m != nil && m.Role == schema.User {
			turns = append(turns, m.Content)
		}
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}
