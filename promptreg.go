package promptreg

import "context"

// Role is the conversation role of a message (system, user, assistant).
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ContentPart is a sealed interface for message content. Only package types implement it via isContentPart().
type ContentPart interface {
	// Type returns the wire tag of the variant ("text", "image").
	Type() string
	isContentPart()
}

// Content type tags.
const (
	ContentText  = "text"
	ContentImage = "image"
)

// TextPart holds plain text content.
type TextPart struct {
	Text string
}

// Type implements ContentPart.
func (TextPart) Type() string { return ContentText }

func (TextPart) isContentPart() {}

// ImagePart holds an image reference: inline Data, or a URL resolved by the host.
type ImagePart struct {
	URL      string
	MIMEType string
	Data     []byte
}

// Type implements ContentPart.
func (ImagePart) Type() string { return ContentImage }

func (ImagePart) isContentPart() {}

// Message is a single role-tagged message.
type Message struct {
	Role    Role
	Content ContentPart
}

// Text returns a message with a single text part.
func Text(role Role, text string) Message {
	return Message{Role: role, Content: TextPart{Text: text}}
}

// Payload is the output of a generator; Messages keep conversation order.
// Description always equals the description of the entry that produced it.
type Payload struct {
	Messages    []Message
	Description string
}

// Args holds named argument values for a generator.
type Args map[string]string

// Argument declares one named argument an entry accepts.
type Argument struct {
	Name        string
	Description string
	Required    bool
}

// Info is the listing record for an entry; it never invokes the generator.
type Info struct {
	ID          string
	Description string
	Arguments   []Argument
}

// Source is the read-only query surface a host consumes.
type Source interface {
	List() []Info
	Invoke(ctx context.Context, id string, args Args) (*Payload, error)
}
