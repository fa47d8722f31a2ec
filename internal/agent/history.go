package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role labels one side of a transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation holds the in-memory transcript for one conversation id.
// Transcripts are never persisted; a restart starts everyone fresh.
type Conversation struct {
	ID string

	mu       sync.Mutex
	messages []Message
	limit    int
	touched  time.Time
}

// Append adds a message to the transcript, dropping the oldest turns once
// the cap is reached.
func (c *Conversation) Append(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Message{Role: role, Content: content})
	if c.limit > 0 && len(c.messages) > c.limit {
		c.messages = c.messages[len(c.messages)-c.limit:]
	}
	c.touched = time.Now()
}

// Messages returns a copy of the transcript
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the transcript
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// DefaultHistoryLimit caps how many messages a conversation keeps. Old turns
// fall off first so long-running conversations stay within the model context.
const DefaultHistoryLimit = 40

// Store hands out conversations by id, minting a fresh id on first contact.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	limit         int
}

// NewStore creates a conversation store. A limit <= 0 uses DefaultHistoryLimit.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Store{
		conversations: make(map[string]*Conversation),
		limit:         limit,
	}
}

// Get returns the conversation for id, creating it on first use. An empty id
// gets a freshly minted UUID so every caller ends up with a stable handle.
func (s *Store) Get(id string) *Conversation {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[id]
	if !ok {
		conversation = &Conversation{
			ID:      id,
			limit:   s.limit,
			touched: time.Now(),
		}
		s.conversations[id] = conversation
	}
	return conversation
}

// Count returns the number of active conversations
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
