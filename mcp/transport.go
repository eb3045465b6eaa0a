package mcp

import (
	"context"
	"io"
	"net/http"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Run serves a single session over t until the client disconnects (nil) or ctx is done (ctx.Err()).
func (s *Server) Run(ctx context.Context, t sdk.Transport) error {
	return s.mcp.Run(ctx, t)
}

// ServeStdio serves one session of newline-delimited JSON-RPC read from r and written to w.
// It returns nil when r reaches EOF and ctx.Err() on cancellation. r and w are not closed.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	s.logger.Info().Str("transport", "stdio").Msg("MCP server started")
	err := s.Run(ctx, &sdk.IOTransport{Reader: io.NopCloser(r), Writer: nopWriteCloser{w}})
	if err == nil {
		s.logger.Info().Msg("stdin closed, MCP server stopping")
	}
	return err
}

// ServeHTTP implements the MCP Streamable HTTP transport, with one SDK session per client.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
