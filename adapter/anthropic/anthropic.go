package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/adapter"
	"github.com/skosovsky/promptreg/mediafetch"
)

const defaultMaxTokens int64 = 1024

const defaultImageMIME = "image/png"

// Adapter implements adapter.ProviderAdapter for the Anthropic Messages API.
type Adapter struct {
	model     anthropic.Model
	maxTokens int64
	images    adapter.ImageResolver
}

// Option configures an Adapter (e.g. WithModel).
type Option func(*Adapter)

// WithModel sets the model placed in every request.
func WithModel(m anthropic.Model) Option {
	return func(a *Adapter) { a.model = m }
}

// WithMaxTokens sets MaxTokens. Values <= 0 keep the default (1024).
func WithMaxTokens(n int64) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithImageResolver sets how URL-only images are downloaded. nil keeps the default.
func WithImageResolver(r adapter.ImageResolver) Option {
	return func(a *Adapter) {
		if r != nil {
			a.images = r
		}
	}
}

// New returns an Adapter with a default model, MaxTokens 1024 and a mediafetch image resolver.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		model:     anthropic.ModelClaudeSonnet4_5_20250929,
		maxTokens: defaultMaxTokens,
		images:    mediafetch.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Translate converts the payload into *anthropic.MessageNewParams.
func (a *Adapter) Translate(ctx context.Context, p *promptreg.Payload) (any, error) {
	return a.TranslateTyped(ctx, p)
}

// TranslateTyped returns the concrete type so callers avoid type assertion.
func (a *Adapter) TranslateTyped(ctx context.Context, p *promptreg.Payload) (*anthropic.MessageNewParams, error) {
	if err := adapter.Check(p); err != nil {
		return nil, err
	}
	params := &anthropic.MessageNewParams{
		MaxTokens: a.maxTokens,
		Model:     a.model,
	}
	var systemTexts []string
	var messages []anthropic.MessageParam
	for _, msg := range p.Messages {
		switch msg.Role {
		case promptreg.RoleSystem:
			text, ok := adapter.TextOf(msg)
			if !ok {
				return nil, fmt.Errorf("%w: system message must be text", adapter.ErrUnsupportedContentType)
			}
			systemTexts = append(systemTexts, text)
		case promptreg.RoleUser:
			block, err := a.block(ctx, msg)
			if err != nil {
				return nil, err
			}
			messages = append(messages, anthropic.NewUserMessage(block))
		case promptreg.RoleAssistant:
			text, ok := adapter.TextOf(msg)
			if !ok {
				return nil, fmt.Errorf("%w: assistant message must be text", adapter.ErrUnsupportedContentType)
			}
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			return nil, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
		}
	}
	if len(systemTexts) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(systemTexts, "\n\n")}}
	}
	params.Messages = messages
	return params, nil
}

func (a *Adapter) block(ctx context.Context, msg promptreg.Message) (anthropic.ContentBlockParamUnion, error) {
	switch x := msg.Content.(type) {
	case promptreg.TextPart:
		return anthropic.NewTextBlock(x.Text), nil
	case promptreg.ImagePart:
		img, err := a.images.Resolve(ctx, x)
		if err != nil {
			return anthropic.ContentBlockParamUnion{}, fmt.Errorf("%w: fetch image URL: %w", adapter.ErrMediaNotResolved, err)
		}
		mime := img.MIMEType
		if mime == "" {
			mime = defaultImageMIME
		}
		return anthropic.NewImageBlockBase64(mime, base64.StdEncoding.EncodeToString(img.Data)), nil
	default:
		return anthropic.ContentBlockParamUnion{}, adapter.ErrUnsupportedContentType
	}
}

var _ adapter.ProviderAdapter = (*Adapter)(nil)
