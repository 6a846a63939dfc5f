package nodeflow

// NodeType identifies the behavior of a node.
type NodeType string

// Built-in node types.
const (
	TypeTextInput      NodeType = "text-input"
	TypeImageInput     NodeType = "image-input"
	TypeTextOutput     NodeType = "text-output"
	TypeMarkdownOutput NodeType = "markdown-output"
	TypeTextCombiner   NodeType = "text-combiner"
	TypeLLMPrompt      NodeType = "llm-prompt"
	TypeConditional    NodeType = "conditional"
	TypeAPICall        NodeType = "api-call"
)

// Handle ids with special meaning to the scheduler.
const (
	DefaultHandle = "default"
	TrueHandle    = "true-out"
	FalseHandle   = "false-out"
)

// Position is the node's location on the editor canvas. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is one unit of computation in a flow.
type Node struct {
	ID       string         `json:"id" yaml:"id" validate:"required"`
	Type     NodeType       `json:"type" yaml:"type" validate:"required"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Position Position       `json:"position" yaml:"position"`
}

// Edge is a directed data dependency from one node's output handle to
// another node's input handle.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	Target       string `json:"target" yaml:"target" validate:"required"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// ImagePayload is an image value flowing between nodes. Only one field is
// normally set.
type ImagePayload struct {
	Base64 string `json:"base64,omitempty"`
	Src    string `json:"src,omitempty"`
	Data   string `json:"data,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Attachment returns the inline image data, preferring base64 over src over
// data. URL-only payloads have no inline data and return "".
func (p ImagePayload) Attachment() string {
	switch {
	case p.Base64 != "":
		return p.Base64
	case p.Src != "":
		return p.Src
	default:
		return p.Data
	}
}

// ConditionalResult is the output of a conditional node.
type ConditionalResult struct {
	Result bool `json:"result"`
	Output any  `json:"output"`
}

// TakenHandle returns the output handle that receives Output.
func (c ConditionalResult) TakenHandle() string {
	if c.Result {
		return TrueHandle
	}
	return FalseHandle
}

// UntakenHandle returns the output handle that receives nothing.
func (c ConditionalResult) UntakenHandle() string {
	if c.Result {
		return FalseHandle
	}
	return TrueHandle
}
