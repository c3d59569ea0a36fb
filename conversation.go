package ai

import "context"

// Conversation accumulates chat history across turns with one model.
//
// Example:
//
//	conv := NewConversation(model).System("You are terse.")
//	reply, err := conv.Send(ctx, "Hello!")
//
// A Conversation is not safe for concurrent use.
type Conversation struct {
	Model    CompletionModel
	Messages []Message
}

// NewConversation creates an empty Conversation bound to model.
func NewConversation(model CompletionModel) *Conversation {
	return &Conversation{Model: model}
}

// System appends a system message and returns the Conversation for chaining.
func (c *Conversation) System(content string) *Conversation {
	c.Messages = append(c.Messages, Message{Role: RoleSystem, Content: content})
	return c
}

// User appends a user message and returns the Conversation for chaining.
func (c *Conversation) User(content string) *Conversation {
	c.Messages = append(c.Messages, Message{Role: RoleUser, Content: content})
	return c
}

// Assistant appends an assistant message and returns the Conversation for chaining.
func (c *Conversation) Assistant(content string) *Conversation {
	c.Messages = append(c.Messages, Message{Role: RoleAssistant, Content: content})
	return c
}

// Send prompts the model with the accumulated history. On success both
// the prompt and the reply are appended; on failure history is unchanged.
func (c *Conversation) Send(ctx context.Context, prompt string) (string, error) {
	reply, err := Chat(ctx, c.Model, prompt, c.Messages)
	if err != nil {
		return "", err
	}
	c.User(prompt).Assistant(reply)
	return reply, nil
}
