// Package ollama provides a promptreg adapter for the Ollama Chat API.
// Translate returns *api.ChatRequest; use TranslateTyped to get the concrete type without a type assertion.
//
// Images: only inline data is supported and only in user messages. An image part that carries
// only a URL is rejected with adapter.ErrMediaNotResolved; resolve it first with mediafetch.
package ollama
