package chat

// Role values follow the OpenAI-style chat completion convention, which all
// supported providers accept.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in a generation request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
