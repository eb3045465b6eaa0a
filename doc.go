// Package promptreg provides a named prompt registry for AI assistant hosts.
// Entries pair a stable id and description with a generator of role-tagged
// messages; the Registry stores them, lists them in registration order and
// invokes them by id. Template text is opaque: nothing here renders it.
package promptreg
