package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Conversation is the append-only message log of one chat session. It lives
// for the session only and is never persisted. A user message is always
// appended before generation starts; the paired assistant message is appended
// only once a final answer (or the fallback message) exists, so a failed turn
// leaves an honest unanswered question in the log.
type Conversation struct {
	messages []Message
}

// NewConversation creates a conversation seeded with an assistant greeting,
// matching the chat opening of each domain assistant.
func NewConversation(greeting string) *Conversation {
	c := &Conversation{}
	if greeting != "" {
		c.messages = append(c.messages, Message{Role: RoleAssistant, Content: greeting})
	}
	return c
}

func (c *Conversation) Append(role Role, content string) {
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the log in append order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int { return len(c.messages) }

// Last returns the most recent message, or false when the log is empty.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}
