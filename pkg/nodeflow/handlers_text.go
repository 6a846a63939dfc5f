package nodeflow

import (
	"context"
	"encoding/json"
	"fmt"
)

// NoInputOutput is the output of an output node that received nothing.
const NoInputOutput = "No input received"

func handleTextInput(_ context.Context, req Request) (any, error) {
	return req.Config.String("text", ""), nil
}

func handleImageInput(_ context.Context, req Request) (any, error) {
	switch v := req.Config.Any("image", nil).(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case ImagePayload:
		return v, nil
	case map[string]any:
		return imagePayloadFromMap(v), nil
	default:
		return nil, fmt.Errorf("unsupported image value of type %T", v)
	}
}

func handleTextOutput(_ context.Context, req Request) (any, error) {
	v, ok := req.Inputs.First()
	if !ok {
		return NoInputOutput, nil
	}
	return Stringify(v), nil
}

func handleTextCombiner(_ context.Context, req Request) (any, error) {
	v, _ := req.Inputs.First()
	return Stringify(v) + req.Config.String("additionalText", ""), nil
}

// Stringify renders a node output as text. Strings pass through, nil is
// empty and anything else is indented JSON.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func imagePayloadFromMap(m map[string]any) ImagePayload {
	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	return ImagePayload{
		Base64: str("base64"),
		Src:    str("src"),
		Data:   str("data"),
		URL:    str("url"),
	}
}
