package llm

import "strings"

// Role identifies the message sender.
type Role string

// Standard message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Images holds base64 payloads without a data-URI prefix.
	Images []string `json:"images,omitempty"`
}

// ChatRequest is a chat-style completion: an ordered list of messages.
type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Options  map[string]any `json:"options,omitempty"`
}

// GenerateRequest is a single-prompt completion that may carry image
// attachments for multimodal models.
type GenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Response is the shared result shape of both calls. Chat backends fill
// Message, generate backends fill Response.
type Response struct {
	Model    string  `json:"model,omitempty"`
	Message  Message `json:"message"`
	Response string  `json:"response,omitempty"`
	Done     bool    `json:"done"`
}

// Text returns the completion text, preferring the chat message content.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	if r.Message.Content != "" {
		return r.Message.Content
	}
	return r.Response
}

// StripDataURI removes a "data:<mime>;base64," prefix if present.
func StripDataURI(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return s
}
