package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/skosovsky/promptreg"
)

// ProviderAdapter maps an invoked prompt to a provider-specific request type.
type ProviderAdapter interface {
	// Translate converts the payload into the provider request (e.g. OpenAI chat params).
	// Callers must type-assert the result to the provider-specific type. ctx bounds any media download.
	Translate(ctx context.Context, p *promptreg.Payload) (any, error)
}

// ImageResolver fills in the bytes of an image part that carries only a URL.
// *mediafetch.Fetcher implements it.
type ImageResolver interface {
	Resolve(ctx context.Context, img promptreg.ImagePart) (promptreg.ImagePart, error)
}

// Sentinel errors for adapter implementations. Callers should use errors.Is.
var (
	ErrNilPayload             = errors.New("adapter: payload must not be nil")
	ErrUnsupportedRole        = errors.New("adapter: unsupported message role for this provider")
	ErrUnsupportedContentType = errors.New("adapter: unsupported content part for this provider")
	ErrMediaNotResolved       = errors.New("adapter: image has a URL but no inline data")
)

// TextOf returns the text of a message and whether its content is a text part.
func TextOf(m promptreg.Message) (string, bool) {
	t, ok := m.Content.(promptreg.TextPart)
	return t.Text, ok
}

// ImageOf returns the image of a message and whether its content is an image part.
func ImageOf(m promptreg.Message) (promptreg.ImagePart, bool) {
	img, ok := m.Content.(promptreg.ImagePart)
	return img, ok
}

// Check validates the payload shared preconditions: non-nil payload, known roles, known content parts.
func Check(p *promptreg.Payload) error {
	if p == nil {
		return ErrNilPayload
	}
	for i, m := range p.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %d: %q", ErrUnsupportedRole, i, m.Role)
		}
		switch m.Content.(type) {
		case promptreg.TextPart, promptreg.ImagePart:
		default:
			return fmt.Errorf("%w: message %d", ErrUnsupportedContentType, i)
		}
	}
	return nil
}
