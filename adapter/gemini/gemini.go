package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/adapter"

	"google.golang.org/genai"
)

const defaultImageMIME = "image/png"

// Request wraps Contents and Config for Gemini GenerateContent API.
type Request struct {
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Adapter implements adapter.ProviderAdapter for the Google Gemini (genai) API.
type Adapter struct{}

// New returns an Adapter.
func New() *Adapter {
	return &Adapter{}
}

// Translate converts the payload into *Request (Contents + Config).
func (a *Adapter) Translate(ctx context.Context, p *promptreg.Payload) (any, error) {
	return a.TranslateTyped(ctx, p)
}

// TranslateTyped returns the concrete type so callers avoid type assertion.
func (a *Adapter) TranslateTyped(_ context.Context, p *promptreg.Payload) (*Request, error) {
	if err := adapter.Check(p); err != nil {
		return nil, err
	}
	config := &genai.GenerateContentConfig{}
	var systemParts []string
	var contents []*genai.Content
	for _, msg := range p.Messages {
		switch msg.Role {
		case promptreg.RoleSystem:
			text, ok := adapter.TextOf(msg)
			if !ok {
				return nil, fmt.Errorf("%w: system message must be text", adapter.ErrUnsupportedContentType)
			}
			systemParts = append(systemParts, text)
		case promptreg.RoleUser:
			part, err := toPart(msg.Content)
			if err != nil {
				return nil, err
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		case promptreg.RoleAssistant:
			part, err := toPart(msg.Content)
			if err != nil {
				return nil, err
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleModel))
		default:
			return nil, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
		}
	}
	if len(systemParts) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return &Request{Contents: contents, Config: config}, nil
}

func toPart(c promptreg.ContentPart) (*genai.Part, error) {
	switch x := c.(type) {
	case promptreg.TextPart:
		return genai.NewPartFromText(x.Text), nil
	case promptreg.ImagePart:
		mime := x.MIMEType
		if mime == "" {
			mime = defaultImageMIME
		}
		switch {
		case len(x.Data) > 0:
			return genai.NewPartFromBytes(x.Data, mime), nil
		case x.URL != "":
			return genai.NewPartFromURI(x.URL, mime), nil
		default:
			return nil, fmt.Errorf("%w: image part has neither data nor URL", adapter.ErrMediaNotResolved)
		}
	default:
		return nil, adapter.ErrUnsupportedContentType
	}
}

var _ adapter.ProviderAdapter = (*Adapter)(nil)
