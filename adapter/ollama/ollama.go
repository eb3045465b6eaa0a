package ollama

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/adapter"
)

// Adapter implements adapter.ProviderAdapter for the Ollama Chat API.
type Adapter struct {
	model string
}

// Option configures an Adapter (e.g. WithModel).
type Option func(*Adapter)

// WithModel sets the model placed in every request.
func WithModel(m string) Option {
	return func(a *Adapter) { a.model = m }
}

// New returns an Adapter with model set to "llama3.2". Options can override the model.
func New(opts ...Option) *Adapter {
	a := &Adapter{model: "llama3.2"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Translate converts the payload into *api.ChatRequest.
func (a *Adapter) Translate(ctx context.Context, p *promptreg.Payload) (any, error) {
	return a.TranslateTyped(ctx, p)
}

// TranslateTyped returns the concrete type so callers avoid type assertion.
func (a *Adapter) TranslateTyped(_ context.Context, p *promptreg.Payload) (*api.ChatRequest, error) {
	if err := adapter.Check(p); err != nil {
		return nil, err
	}
	req := &api.ChatRequest{
		Model:    a.model,
		Messages: make([]api.Message, 0, len(p.Messages)),
	}
	for _, msg := range p.Messages {
		m, err := translateMessage(msg)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, m)
	}
	return req, nil
}

func translateMessage(msg promptreg.Message) (api.Message, error) {
	img, isImage := adapter.ImageOf(msg)
	if !isImage {
		text, _ := adapter.TextOf(msg)
		return api.Message{Role: string(msg.Role), Content: text}, nil
	}
	if msg.Role != promptreg.RoleUser {
		return api.Message{}, fmt.Errorf("%w: Ollama does not support images in %s messages", adapter.ErrUnsupportedContentType, msg.Role)
	}
	if len(img.Data) == 0 {
		if img.URL != "" {
			return api.Message{}, fmt.Errorf("%w: %s", adapter.ErrMediaNotResolved, img.URL)
		}
		return api.Message{}, fmt.Errorf("%w: image part has neither data nor URL", adapter.ErrUnsupportedContentType)
	}
	return api.Message{Role: string(msg.Role), Images: []api.ImageData{api.ImageData(img.Data)}}, nil
}

var _ adapter.ProviderAdapter = (*Adapter)(nil)
