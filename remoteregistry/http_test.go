package remoteregistry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/skosovsky/promptreg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifestFor(id, text string) string {
	return "id: " + id + `
description: Remote prompt ` + id + `
messages:
  - role: assistant
    content:
      type: text
      text: "` + text + `"
`
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/support_agent.yaml", r.URL.Path)
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(manifestFor("support_agent", "Hello")))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	src := New(h)
	e, err := src.Load(context.Background(), "support_agent")
	require.NoError(t, err)
	assert.Equal(t, "support_agent", e.ID())
	assert.Equal(t, "Remote prompt support_agent", e.Description())
}

func TestHTTPFetcher_Fetch_YmlFallback(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/fallback.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(manifestFor("fallback", "Base")))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	data, err := h.Fetch(context.Background(), "fallback")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Base")
	mu.Lock()
	pathsCopy := append([]string(nil), paths...)
	mu.Unlock()
	assert.Equal(t, []string{"/fallback.yaml", "/fallback.yml"}, pathsCopy)
}

func TestHTTPFetcher_Fetch_BearerAuth(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(manifestFor("auth", "OK")))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL, WithAuthToken("secret-token"))
	require.NoError(t, err)
	data, err := h.Fetch(context.Background(), "auth")
	require.NoError(t, err)
	assert.Contains(t, string(data), "OK")

	anon, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = anon.Fetch(context.Background(), "auth")
	require.ErrorIs(t, err, ErrHTTPStatus)
}

func TestHTTPFetcher_Fetch_NotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "nonexistent")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = New(h).Load(context.Background(), "nonexistent")
	require.ErrorIs(t, err, promptreg.ErrNotFound)
}

func TestHTTPFetcher_Fetch_HTTPError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "x")
	require.ErrorIs(t, err, ErrHTTPStatus)
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestHTTPFetcher_NewInvalidURL(t *testing.T) {
	t.Parallel()
	for _, u := range []string{"", "://invalid", "no-scheme", "http://"} {
		_, err := NewHTTPFetcher(u)
		require.Error(t, err, u)
	}
}

func TestHTTPFetcher_BasePathPrefix(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/prompts/p.yaml", r.URL.Path)
		_, _ = w.Write([]byte(manifestFor("p", "x")))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL + "/v1/prompts/")
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "p")
	require.NoError(t, err)
	require.NoError(t, h.Close())
}

func TestHTTPFetcher_Fetch_InvalidID(t *testing.T) {
	t.Parallel()
	h, err := NewHTTPFetcher("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, promptreg.ErrInvalidName)
}

func TestHTTPFetcher_Fetch_BodyTooLarge(t *testing.T) {
	t.Parallel()
	bigBody := make([]byte, maxBodySize+1)
	for i := range bigBody {
		bigBody[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bigBody)
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "large")
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.Contains(t, err.Error(), "exceeds")

	_, err = New(h).Load(context.Background(), "large")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestHTTPFetcher_IntegrationWithRegistry(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(manifestFor("integ", "Integrated")))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	r := promptreg.New()
	require.NoError(t, New(h).Register(context.Background(), r, "integ"))

	p, err := r.Invoke(context.Background(), "integ", nil)
	require.NoError(t, err)
	require.Len(t, p.Messages, 1)
	assert.Equal(t, promptreg.RoleAssistant, p.Messages[0].Role)
	assert.Equal(t, promptreg.TextPart{Text: "Integrated"}, p.Messages[0].Content)
	assert.Equal(t, "Remote prompt integ", p.Description)
}

func TestHTTPFetcher_WithHTTPClient(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(manifestFor("client_test", "OK")))
	}))
	defer srv.Close()

	customClient := &http.Client{Timeout: 5 * time.Second}
	h, err := NewHTTPFetcher(srv.URL, WithHTTPClient(customClient))
	require.NoError(t, err)
	data, err := h.Fetch(context.Background(), "client_test")
	require.NoError(t, err)
	assert.Contains(t, string(data), "client_test")

	// WithHTTPClient(nil) keeps the default client.
	h2, err := NewHTTPFetcher(srv.URL, WithHTTPClient(nil))
	require.NoError(t, err)
	data2, err := h2.Fetch(context.Background(), "client_test")
	require.NoError(t, err)
	assert.Contains(t, string(data2), "client_test")
}

func TestHTTPFetcher_Fetch_UserAgentSet(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "promptreg-remote-registry/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(manifestFor("ua", "OK")))
	}))
	defer srv.Close()
	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "ua")
	require.NoError(t, err)
}

func TestHTTPFetcher_Fetch_ContextCancellation(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)
	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Fetch(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_Fetch_DotInID(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/support.agent.yaml", r.URL.Path)
		_, _ = w.Write([]byte(manifestFor("support.agent", "Dot id")))
	}))
	defer srv.Close()
	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	data, err := h.Fetch(context.Background(), "support.agent")
	require.NoError(t, err)
	assert.Contains(t, string(data), "support.agent")
}

func TestHTTPFetcher_CloseViaSource(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(manifestFor("p", "x")))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	src := New(h)
	_, err = src.Load(context.Background(), "p")
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, h.Close())
}

// indexServer serves index at /index.yaml (or /index.yml when yml is set) and manifests for ids.
func indexServer(t *testing.T, index string, yml bool, ids ...string) *httptest.Server {
	t.Helper()
	indexPath := "/index.yaml"
	if yml {
		indexPath = "/index.yml"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+indexPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(index))
	})
	for _, id := range ids {
		mux.HandleFunc("GET /"+id+".yaml", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(manifestFor(id, "from "+id)))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_ListIDs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		index string
		yml   bool
		want  []string
	}{
		{"sequence", "- b\n- a\n", false, []string{"b", "a"}},
		{"ids key", "ids:\n  - a\n  - b.prod\n", false, []string{"a", "b.prod"}},
		{"yml fallback", "- a\n", true, []string{"a"}},
		{"empty list", "[]\n", false, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := indexServer(t, tt.index, tt.yml)
			h, err := NewHTTPFetcher(srv.URL)
			require.NoError(t, err)
			defer func() { _ = h.Close() }()
			got, err := h.ListIDs(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPFetcher_ListIDs_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		index   string
		wantErr error
	}{
		{"empty document", "", ErrInvalidIndex},
		{"scalar", "hello\n", ErrInvalidIndex},
		{"bad id", "- ../etc\n", promptreg.ErrInvalidName},
		{"duplicate", "- a\n- a\n", promptreg.ErrDuplicateID},
		{"not strings", "- [a]\n", ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := indexServer(t, tt.index, false)
			h, err := NewHTTPFetcher(srv.URL)
			require.NoError(t, err)
			defer func() { _ = h.Close() }()
			_, err = h.ListIDs(context.Background())
			require.ErrorIs(t, err, ErrInvalidIndex)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPFetcher_ListIDs_Missing(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = h.ListIDs(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "index.yaml")

	err = New(h).Register(context.Background(), promptreg.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPFetcher_RegisterFromIndex(t *testing.T) {
	t.Parallel()
	srv := indexServer(t, "ids: [beta, alpha]\n", false, "alpha", "beta")
	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	src := New(h)
	defer func() { _ = src.Close() }()

	r := promptreg.New()
	require.NoError(t, src.Register(context.Background(), r))
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "beta", list[0].ID, "index order is registration order")
	assert.Equal(t, "alpha", list[1].ID)

	p, err := r.Invoke(context.Background(), "alpha", nil)
	require.NoError(t, err)
	assert.Equal(t, promptreg.TextPart{Text: "from alpha"}, p.Messages[0].Content)
}
