package store

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message within a conversation. Immutable once created.
type Turn struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	CreatedTs      int64
}

// FindTurn filters for ListTurns.
type FindTurn struct {
	ConversationID string
	// Limit returns only the most recent N turns (0 = all). Results are
	// always in chronological order.
	Limit int
}
