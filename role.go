package gemchat

// Role represents the role a turn is attributed to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
