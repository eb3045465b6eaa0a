package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/adapter"
)

// Adapter implements adapter.ProviderAdapter for the OpenAI Chat Completions API.
type Adapter struct {
	model shared.ChatModel
}

// Option configures an Adapter (e.g. WithModel).
type Option func(*Adapter)

// WithModel sets the model placed in every request.
func WithModel(m shared.ChatModel) Option {
	return func(a *Adapter) { a.model = m }
}

// New returns an Adapter with model set to gpt-4o. Options can override the model.
func New(opts ...Option) *Adapter {
	a := &Adapter{model: openai.ChatModelGPT4o}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Translate converts the payload into *openai.ChatCompletionNewParams.
func (a *Adapter) Translate(ctx context.Context, p *promptreg.Payload) (any, error) {
	return a.TranslateTyped(ctx, p)
}

// TranslateTyped returns the concrete type so callers avoid type assertion.
// The conversion is offline; ctx is accepted for interface symmetry.
func (a *Adapter) TranslateTyped(_ context.Context, p *promptreg.Payload) (*openai.ChatCompletionNewParams, error) {
	if err := adapter.Check(p); err != nil {
		return nil, err
	}
	params := &openai.ChatCompletionNewParams{
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(p.Messages)),
		Model:    a.model,
	}
	for _, msg := range p.Messages {
		union, err := messageToUnion(msg)
		if err != nil {
			return nil, err
		}
		params.Messages = append(params.Messages, union)
	}
	return params, nil
}

func messageToUnion(msg promptreg.Message) (openai.ChatCompletionMessageParamUnion, error) {
	if img, ok := adapter.ImageOf(msg); ok {
		if msg.Role != promptreg.RoleUser {
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: image in %s message", adapter.ErrUnsupportedContentType, msg.Role)
		}
		part, err := imagePartToOpenAI(img)
		if err != nil {
			return openai.ChatCompletionMessageParamUnion{}, err
		}
		return openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{part}), nil
	}
	text, _ := adapter.TextOf(msg)
	switch msg.Role {
	case promptreg.RoleSystem:
		return openai.SystemMessage(text), nil
	case promptreg.RoleUser:
		return openai.UserMessage(text), nil
	case promptreg.RoleAssistant:
		return openai.AssistantMessage(text), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
	}
}

func imagePartToOpenAI(p promptreg.ImagePart) (openai.ChatCompletionContentPartUnionParam, error) {
	url := p.URL
	if len(p.Data) > 0 {
		mime := p.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		url = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
	}
	if url == "" {
		return openai.ChatCompletionContentPartUnionParam{}, adapter.ErrMediaNotResolved
	}
	return openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
		URL:    url,
		Detail: "auto",
	}), nil
}

var _ adapter.ProviderAdapter = (*Adapter)(nil)
