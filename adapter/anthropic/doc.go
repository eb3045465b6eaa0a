// Package anthropic provides a promptreg adapter for the Anthropic Messages API.
// Translate returns *anthropic.MessageNewParams; use TranslateTyped to get the concrete type
// without a type assertion.
//
// System messages are joined with a blank line and moved to the System field.
// Image parts are sent as base64 sources; parts with only a URL are downloaded through
// the configured adapter.ImageResolver (a mediafetch.Fetcher by default).
// Images are only accepted in user messages.
package anthropic
