// Package gemini provides a promptreg adapter for the Google Gemini (genai) API.
// Translate returns *gemini.Request (Contents + Config); use TranslateTyped to get the
// concrete type without a type assertion.
//
// Model: the Gemini SDK sets the model on the client, not per request.
// System messages are joined into Config.SystemInstruction; assistant messages use the "model" role.
// Images become inline data parts, or file-URI parts when only a URL is set.
package gemini
