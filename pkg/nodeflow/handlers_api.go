package nodeflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/kaptinlin/jsonrepair"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/httpclient"
)

var errNoEndpoint = errors.New("no endpoint configured")

func (e *Executor) handleAPICall(ctx context.Context, req Request) (any, error) {
	cfg := req.Config
	endpoint := strings.TrimSpace(cfg.String("endpoint", ""))
	if endpoint == "" {
		return nil, errNoEndpoint
	}
	method := strings.ToUpper(cfg.NonEmptyString("method", http.MethodGet))

	headers := cfg.StringMap("headers")
	if headers == nil {
		headers = make(map[string]string)
	}

	var body []byte
	if method != http.MethodGet {
		first, _ := req.Inputs.First()
		b, err := json.Marshal(first)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = b
		if !hasHeader(headers, "Content-Type") {
			headers["Content-Type"] = "application/json"
		}
	}

	resp, err := e.http.Do(ctx, &httpclient.Request{
		Method:  method,
		URL:     endpoint,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("HTTP %d: %s", resp.Status, strings.TrimSpace(resp.Text()))
	}

	if text, ok := prettyJSON(resp.Body); ok {
		return text, nil
	}

	contentType := resp.ContentType()
	if strings.Contains(contentType, "json") {
		if repaired, err := jsonrepair.JSONRepair(resp.Text()); err == nil {
			if text, ok := prettyJSON([]byte(repaired)); ok {
				return text, nil
			}
		}
		req.Logger.Debug("response is not valid JSON, returning raw text",
			"content_type", contentType)
	}

	if cfg.Bool("htmlToMarkdown", false) && strings.Contains(contentType, "html") {
		md, err := htmltomarkdown.ConvertString(resp.Text())
		if err != nil {
			return nil, fmt.Errorf("convert html: %w", err)
		}
		return md, nil
	}

	return resp.Text(), nil
}

// prettyJSON re-serialises a JSON document with two-space indentation.
// Number literals are kept as written.
func prettyJSON(data []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	if dec.More() {
		return "", false
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", false
	}
	return string(out), true
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
