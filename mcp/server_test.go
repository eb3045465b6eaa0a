package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/figma"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubImages struct {
	err error
}

func (s stubImages) Resolve(_ context.Context, img promptreg.ImagePart) (promptreg.ImagePart, error) {
	if s.err != nil {
		return img, s.err
	}
	if len(img.Data) == 0 {
		img.Data = []byte("fetched")
		img.MIMEType = "image/png"
	}
	return img, nil
}

var errBoom = errors.New("boom")

func buildRegistry(t *testing.T) *promptreg.Registry {
	t.Helper()
	r := promptreg.New()
	require.NoError(t, figma.Register(r))
	r.MustRegister(promptreg.MustEntry("greet", "Greets someone",
		func(_ context.Context, args promptreg.Args) ([]promptreg.Message, error) {
			return []promptreg.Message{
				promptreg.Text(promptreg.RoleSystem, "be kind"),
				promptreg.Text(promptreg.RoleUser, "Hello, "+args["name"]),
			}, nil
		},
		promptreg.WithArguments(promptreg.Argument{Name: "name", Description: "Who to greet", Required: true}),
	))
	r.MustRegister(promptreg.MustEntry("picture", "Shows a frame", promptreg.Static(
		promptreg.Message{Role: promptreg.RoleUser, Content: promptreg.ImagePart{URL: "https://example.com/frame.png"}},
	)))
	r.MustRegister(promptreg.MustEntry("broken", "Always fails",
		func(context.Context, promptreg.Args) ([]promptreg.Message, error) { return nil, errBoom },
	))
	return r
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	r := buildRegistry(t)
	r.Freeze()
	opts = append([]ServerOption{WithImageFetcher(stubImages{})}, opts...)
	return NewServer(r, zerolog.Nop(), opts...)
}

// connect runs an in-memory session against s and returns the client side.
func connect(t *testing.T, s *Server) *sdk.ClientSession {
	t.Helper()
	clientT, serverT := sdk.NewInMemoryTransports()
	ss, err := s.MCP().Connect(context.Background(), serverT, nil)
	require.NoError(t, err)
	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(context.Background(), clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func rpcCode(t *testing.T, err error) (int64, string) {
	t.Helper()
	require.Error(t, err)
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	return rpcErr.Code, rpcErr.Message
}

func TestServer_Initialize(t *testing.T) {
	t.Parallel()
	cs := connect(t, newTestServer(t, WithName("figma-prompts"), WithVersion("1.2.3")))
	info := cs.InitializeResult()
	require.NotNil(t, info)
	assert.Equal(t, "figma-prompts", info.ServerInfo.Name)
	assert.Equal(t, "1.2.3", info.ServerInfo.Version)
	require.NotNil(t, info.Capabilities.Prompts)
	assert.Nil(t, info.Capabilities.Tools)
	require.NoError(t, cs.Ping(context.Background(), nil))
}

func TestServer_ListPrompts_RegistrationOrder(t *testing.T) {
	t.Parallel()
	cs := connect(t, newTestServer(t))
	res, err := cs.ListPrompts(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, p := range res.Prompts {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		figma.DesignStrategy, figma.ReadDesignStrategy, figma.TextReplacementStrategy,
		"greet", "picture", "broken",
	}, names)
	assert.Equal(t, "Best practices for working with Figma designs using available tools", res.Prompts[0].Description)
	assert.Empty(t, res.Prompts[0].Arguments)
	assert.Equal(t, []*sdk.PromptArgument{{Name: "name", Description: "Who to greet", Required: true}}, res.Prompts[3].Arguments)
}

func TestServer_GetPrompt_Figma(t *testing.T) {
	t.Parallel()
	cs := connect(t, newTestServer(t))
	for _, id := range []string{figma.DesignStrategy, figma.ReadDesignStrategy, figma.TextReplacementStrategy} {
		res, err := cs.GetPrompt(context.Background(), &sdk.GetPromptParams{Name: id})
		require.NoError(t, err, id)
		assert.NotEmpty(t, res.Description)
		require.Len(t, res.Messages, 1)
		assert.Equal(t, sdk.Role("assistant"), res.Messages[0].Role)
		text, ok := res.Messages[0].Content.(*sdk.TextContent)
		require.True(t, ok, "content is %T", res.Messages[0].Content)
		assert.NotEmpty(t, text.Text)
	}
}

func TestServer_GetPrompt_SystemSentAsUser(t *testing.T) {
	t.Parallel()
	cs := connect(t, newTestServer(t))
	res, err := cs.GetPrompt(context.Background(), &sdk.GetPromptParams{
		Name:      "greet",
		Arguments: map[string]string{"name": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Greets someone", res.Description)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, sdk.Role("user"), res.Messages[0].Role)
	assert.Equal(t, "be kind", res.Messages[0].Content.(*sdk.TextContent).Text)
	assert.Equal(t, "Hello, Ada", res.Messages[1].Content.(*sdk.TextContent).Text)
}

func TestServer_GetPrompt_Image(t *testing.T) {
	t.Parallel()
	cs := connect(t, newTestServer(t))
	res, err := cs.GetPrompt(context.Background(), &sdk.GetPromptParams{Name: "picture"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	img, ok := res.Messages[0].Content.(*sdk.ImageContent)
	require.True(t, ok, "content is %T", res.Messages[0].Content)
	assert.Equal(t, []byte("fetched"), img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestServer_GetPrompt_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		opts     []ServerOption
		params   *sdk.GetPromptParams
		wantCode int64
		wantMsg  string
	}{
		{"unknown prompt", nil, &sdk.GetPromptParams{Name: "missing"}, jsonrpc.CodeInvalidParams, "missing"},
		{"missing required argument", nil, &sdk.GetPromptParams{Name: "greet"}, jsonrpc.CodeInvalidParams, `"name"`},
		{"undeclared argument", nil, &sdk.GetPromptParams{Name: figma.DesignStrategy, Arguments: map[string]string{"x": "1"}}, jsonrpc.CodeInvalidParams, `"x"`},
		{"generator failure", nil, &sdk.GetPromptParams{Name: "broken"}, jsonrpc.CodeInternalError, "boom"},
		{"image fetch failure", []ServerOption{WithImageFetcher(stubImages{err: errBoom})}, &sdk.GetPromptParams{Name: "picture"}, jsonrpc.CodeInternalError, "resolve image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cs := connect(t, newTestServer(t, tt.opts...))
			_, err := cs.GetPrompt(context.Background(), tt.params)
			code, msg := rpcCode(t, err)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, msg, tt.wantMsg)
		})
	}
}

func TestServer_Sync(t *testing.T) {
	t.Parallel()
	r := buildRegistry(t)
	s := NewServer(r, zerolog.Nop(), WithImageFetcher(stubImages{}))
	cs := connect(t, s)

	require.NoError(t, r.Unregister("broken"))
	s.Sync()

	res, err := cs.ListPrompts(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Prompts, 5)
	for _, p := range res.Prompts {
		assert.NotEqual(t, "broken", p.Name)
	}
	_, err = cs.GetPrompt(context.Background(), &sdk.GetPromptParams{Name: "broken"})
	code, _ := rpcCode(t, err)
	assert.Equal(t, int64(jsonrpc.CodeInvalidParams), code)
}

func TestRPCError(t *testing.T) {
	t.Parallel()
	argErr := &promptreg.ArgumentError{Argument: "name", Prompt: "greet", Reason: "required", Err: promptreg.ErrInvalidArgument}
	tests := []struct {
		name     string
		err      error
		wantCode int64
		wantMsg  string
	}{
		{"not found", promptreg.ErrNotFound, jsonrpc.CodeInvalidParams, "unknown prompt: p"},
		{"invalid argument", argErr, jsonrpc.CodeInvalidParams, argErr.Error()},
		{"other", errBoom, jsonrpc.CodeInternalError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rpcError("p", tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestNewServer_NilSourcePanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewServer(nil, zerolog.Nop()) })
}
