package model

import (
	"context"
	"encoding/json"
	"fmt"
)

// ConversationState is the single pending-input state of a conversation.
type ConversationState int

const (
	Idle ConversationState = iota
	AwaitingIncome
	AwaitingDocumentFields
	AwaitingQuestion
	AwaitingSpreadsheet
)

var stateNames = map[ConversationState]string{
	Idle:                   "idle",
	AwaitingIncome:         "awaiting_income",
	AwaitingDocumentFields: "awaiting_document_fields",
	AwaitingQuestion:       "awaiting_question",
	AwaitingSpreadsheet:    "awaiting_spreadsheet",
}

func (s ConversationState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalJSON encodes the state by name so stored values survive reordering.
func (s ConversationState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ConversationState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for state, n := range stateNames {
		if n == name {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown conversation state %q", name)
}

// Conversation is everything remembered between two events of one user.
type Conversation struct {
	State ConversationState `json:"state"`
	// Regime is the tax regime picked with an inline button while AwaitingIncome.
	Regime string `json:"regime,omitempty"`
}

// IdleConversation is the value every conversation starts with and returns to.
func IdleConversation() Conversation {
	return Conversation{State: Idle}
}

type StateStore interface {
	// Load returns the stored conversation, or an idle one when none exists
	Load(ctx context.Context, conversationID string) (Conversation, error)

	// Save replaces the stored conversation
	Save(ctx context.Context, conversationID string, conv Conversation) error

	// Reset forgets the conversation
	Reset(ctx context.Context, conversationID string) error
}
