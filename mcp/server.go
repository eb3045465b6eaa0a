package mcp

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/internal/logging"
	"github.com/skosovsky/promptreg/mediafetch"
)

// ImageFetcher fills in the bytes of an image part that carries only a URL.
// *mediafetch.Fetcher implements it.
type ImageFetcher interface {
	Resolve(ctx context.Context, img promptreg.ImagePart) (promptreg.ImagePart, error)
}

// Server answers MCP prompt requests from a promptreg.Source. Safe for concurrent use.
type Server struct {
	src     promptreg.Source
	logger  zerolog.Logger
	name    string
	version string
	images  ImageFetcher

	mcp     *sdk.Server
	handler http.Handler

	mu    sync.RWMutex
	order map[string]int
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithName sets serverInfo.name. Default is "promptreg".
func WithName(name string) ServerOption {
	return func(s *Server) {
		s.name = name
	}
}

// WithVersion sets serverInfo.version. Default is "dev".
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// WithImageFetcher sets how URL-only images are downloaded. nil keeps the default mediafetch.Fetcher.
func WithImageFetcher(f ImageFetcher) ServerOption {
	return func(s *Server) {
		if f != nil {
			s.images = f
		}
	}
}

// NewServer creates a server over src and advertises every entry src lists. Panics if src is nil.
func NewServer(src promptreg.Source, logger zerolog.Logger, opts ...ServerOption) *Server {
	if src == nil {
		panic("mcp: Source must not be nil")
	}
	s := &Server{
		src:     src,
		logger:  logger,
		name:    "promptreg",
		version: "dev",
		images:  mediafetch.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	slogger := logging.Slog(logger)
	s.mcp = sdk.NewServer(&sdk.Implementation{Name: s.name, Version: s.version}, &sdk.ServerOptions{
		Logger:       slogger,
		Capabilities: &sdk.ServerCapabilities{Prompts: &sdk.PromptCapabilities{ListChanged: true}},
	})
	s.mcp.AddReceivingMiddleware(s.observe)
	s.handler = sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return s.mcp },
		&sdk.StreamableHTTPOptions{Logger: slogger})
	s.Sync()
	return s
}

// MCP returns the underlying SDK server, e.g. to connect a custom transport.
func (s *Server) MCP() *sdk.Server { return s.mcp }

// Sync re-reads the Source listing and updates the advertised prompts.
// Connected clients get notifications/prompts/list_changed when the set changes.
func (s *Server) Sync() {
	infos := s.src.List()
	order := make(map[string]int, len(infos))
	for i, info := range infos {
		order[info.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []string
	for id := range s.order {
		if _, ok := order[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		s.mcp.RemovePrompts(stale...)
	}
	for _, info := range infos {
		s.mcp.AddPrompt(toPrompt(info), s.promptHandler(info.ID))
	}
	s.order = order
}

func toPrompt(info promptreg.Info) *sdk.Prompt {
	p := &sdk.Prompt{Name: info.ID, Description: info.Description}
	for _, a := range info.Arguments {
		p.Arguments = append(p.Arguments, &sdk.PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required})
	}
	return p
}

// observe logs every request and restores registration order in prompts/list results,
// which the SDK sorts by name.
func (s *Server) observe(next sdk.MethodHandler) sdk.MethodHandler {
	return func(ctx context.Context, method string, req sdk.Request) (sdk.Result, error) {
		start := time.Now()
		res, err := next(ctx, method, req)
		if list, ok := res.(*sdk.ListPromptsResult); ok && err == nil {
			s.sortPrompts(list.Prompts)
		}
		ev := s.logger.Debug()
		if err != nil {
			ev = s.logger.Warn().Err(err)
		}
		ev.Str("method", method).Dur("elapsed", time.Since(start)).Msg("request handled")
		return res, err
	}
}

func (s *Server) sortPrompts(prompts []*sdk.Prompt) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slices.SortStableFunc(prompts, func(a, b *sdk.Prompt) int {
		return cmp.Compare(s.order[a.Name], s.order[b.Name])
	})
}

func (s *Server) promptHandler(id string) sdk.PromptHandler {
	return func(ctx context.Context, req *sdk.GetPromptRequest) (*sdk.GetPromptResult, error) {
		var args promptreg.Args
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			args = promptreg.Args(req.Params.Arguments)
		}
		payload, err := s.src.Invoke(ctx, id, args)
		if err != nil {
			return nil, rpcError(id, err)
		}
		res := &sdk.GetPromptResult{
			Description: payload.Description,
			Messages:    make([]*sdk.PromptMessage, 0, len(payload.Messages)),
		}
		for _, m := range payload.Messages {
			pm, err := s.toPromptMessage(ctx, m)
			if err != nil {
				return nil, &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: err.Error()}
			}
			res.Messages = append(res.Messages, pm)
		}
		return res, nil
	}
}

// toPromptMessage converts a message to wire form. MCP has no system role; system text is sent as user.
func (s *Server) toPromptMessage(ctx context.Context, m promptreg.Message) (*sdk.PromptMessage, error) {
	role := sdk.Role(m.Role)
	if m.Role == promptreg.RoleSystem {
		role = sdk.Role(promptreg.RoleUser)
	}
	switch c := m.Content.(type) {
	case promptreg.TextPart:
		return &sdk.PromptMessage{Role: role, Content: &sdk.TextContent{Text: c.Text}}, nil
	case promptreg.ImagePart:
		img, err := s.images.Resolve(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("resolve image: %w", err)
		}
		return &sdk.PromptMessage{Role: role, Content: &sdk.ImageContent{Data: img.Data, MIMEType: img.MIMEType}}, nil
	default:
		return nil, fmt.Errorf("unsupported content part %T", m.Content)
	}
}

// rpcError maps registry errors to JSON-RPC errors: unknown ids and bad arguments are
// invalid params, anything else is internal.
func rpcError(id string, err error) *jsonrpc.Error {
	switch {
	case errors.Is(err, promptreg.ErrNotFound):
		return &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: "unknown prompt: " + id}
	case errors.Is(err, promptreg.ErrInvalidArgument):
		return &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
	default:
		return &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: err.Error()}
	}
}
