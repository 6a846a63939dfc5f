// Package llm provides the completion clients used by llm-prompt nodes.
//
// Two call shapes are supported, mirroring the Ollama API: Chat takes a list
// of role-tagged messages, Generate takes a single prompt plus optional
// base64 image attachments. Both return a Response whose Text method yields
// the completion.
//
// OllamaClient speaks the Ollama HTTP API directly. OpenAIClient covers
// OpenAI-compatible servers. MockClient is a scripted stand-in for tests.
package llm
