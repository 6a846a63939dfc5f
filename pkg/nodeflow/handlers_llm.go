package nodeflow

import (
	"context"
	"errors"
	"strings"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/llm"
)

var errNoModel = errors.New("no model selected")

func (e *Executor) handleLLMPrompt(ctx context.Context, req Request) (any, error) {
	cfg := req.Config
	model := cfg.NonEmptyString("model", "")
	if model == "" {
		return nil, errNoModel
	}

	var texts, images []string
	for _, in := range req.Inputs {
		if img, ok := imageAttachment(in.Value); ok {
			images = append(images, img)
			continue
		}
		if in.Value == nil {
			continue
		}
		texts = append(texts, Stringify(in.Value))
	}
	prompt := strings.Join(texts, "\n")

	var options map[string]any
	if cfg.Has("temperature") {
		options = map[string]any{"temperature": cfg.Float("temperature", 0.7)}
	}

	baseURL := ""
	if req.Plan != nil {
		baseURL = req.Plan.Config.OllamaURL
	}
	client := e.llm(cfg.NonEmptyString("ollamaUrl", baseURL), cfg)

	var (
		resp *llm.Response
		err  error
	)
	if len(images) > 0 {
		resp, err = client.Generate(ctx, llm.GenerateRequest{
			Model:   model,
			Prompt:  prompt,
			Images:  images,
			Options: options,
		})
	} else {
		var msgs []llm.Message
		if sys := cfg.String("systemPrompt", ""); sys != "" {
			msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: sys})
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})
		resp, err = client.Chat(ctx, llm.ChatRequest{
			Model:    model,
			Messages: msgs,
			Options:  options,
		})
	}
	if err != nil {
		return nil, err
	}
	return resp.Text(), nil
}

// imageAttachment extracts inline image data from v, without any data-URI
// prefix.
func imageAttachment(v any) (string, bool) {
	var data string
	switch img := v.(type) {
	case string:
		if !strings.HasPrefix(img, "data:image/") {
			return "", false
		}
		data = img
	case ImagePayload:
		data = img.Attachment()
	case *ImagePayload:
		if img != nil {
			data = img.Attachment()
		}
	case map[string]any:
		data = imagePayloadFromMap(img).Attachment()
	}
	if data == "" {
		return "", false
	}
	return llm.StripDataURI(data), true
}
