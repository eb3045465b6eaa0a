// Package adapter defines the ProviderAdapter interface for mapping a promptreg.Payload
// to provider-specific request types (Anthropic, OpenAI, Gemini, Ollama).
// Implementations live in provider-specific subpackages.
package adapter
