// Package openai provides a promptreg adapter for the OpenAI Chat Completions API.
// Translate returns *openai.ChatCompletionNewParams; use TranslateTyped to get the concrete type
// without a type assertion.
//
// Image parts become image_url content parts with detail "auto": inline data is sent as a
// data URL, otherwise the part URL is passed through. Images are only accepted in user messages.
package openai
