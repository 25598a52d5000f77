package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu     sync.Mutex
	months map[string]string
	hits   []string
	agents []string
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits = append(f.hits, r.URL.Path)
		f.agents = append(f.agents, r.UserAgent())
		f.mu.Unlock()

		if r.URL.Path == "/player/alice/games/archives" {
			var urls []string
			for _, m := range []string{"2024/01", "2024/02", "2024/03", "2024/04"} {
				urls = append(urls, fmt.Sprintf(`"%s/player/alice/games/%s"`, srv.URL, m))
			}
			fmt.Fprintf(w, `{"archives":[%s]}`, strings.Join(urls, ","))
			return
		}
		if month, ok := strings.CutPrefix(r.URL.Path, "/player/alice/games/"); ok {
			if text, ok := f.months[strings.TrimSuffix(month, "/pgn")]; ok {
				fmt.Fprint(w, text)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFake() *fakeAPI {
	return &fakeAPI{months: map[string]string{
		"2024/01": "[Event \"jan\"]\n\n1. e4 *\n",
		"2024/02": "",
		"2024/03": "[Event \"mar\"]\n\n1. d4 *\n\n",
		"2024/04": "[Event \"apr\"]\n\n1. c4 *\n",
	}}
}

func TestDownloadMostRecentFirst(t *testing.T) {
	api := newFake()
	srv := api.server(t)
	c := New(srv.URL, 1000)

	text, err := c.Download(context.Background(), "Alice", Range{From: "2024-02", To: "2024-03"})
	require.NoError(t, err)
	assert.Equal(t, "[Event \"mar\"]\n\n1. d4 *\n", text)

	text, err = c.Download(context.Background(), "alice", Range{})
	require.NoError(t, err)
	apr := strings.Index(text, "apr")
	mar := strings.Index(text, "mar")
	jan := strings.Index(text, "jan")
	assert.True(t, apr < mar && mar < jan, text)
	assert.True(t, strings.HasSuffix(text, "*\n"))
	assert.NotContains(t, text, "\n\n\n")

	for _, ua := range api.agents {
		assert.Equal(t, DefaultUserAgent, ua)
	}
}

func TestDownloadNothingInRange(t *testing.T) {
	srv := newFake().server(t)
	text, err := New(srv.URL, 1000).Download(context.Background(), "alice", Range{From: "2030-01"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDownloadUnknownPlayer(t *testing.T) {
	srv := newFake().server(t)
	_, err := New(srv.URL, 1000).Download(context.Background(), "mallory", Range{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDownloadCancelled(t *testing.T) {
	srv := newFake().server(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, 1000).Download(ctx, "alice", Range{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRange(t *testing.T) {
	assert.NoError(t, Range{}.Validate())
	assert.NoError(t, Range{From: "2023-12", To: "2024-01"}.Validate())
	assert.Error(t, Range{From: "2024-13"}.Validate())
	assert.Error(t, Range{To: "24-01"}.Validate())
	assert.Error(t, Range{From: "2024-02", To: "2024-01"}.Validate())

	r := Range{From: "2023-11", To: "2024-01"}
	assert.True(t, r.Contains("2023-11"))
	assert.True(t, r.Contains("2024-01"))
	assert.False(t, r.Contains("2023-10"))
	assert.False(t, r.Contains("2024-02"))
	assert.True(t, Range{}.Contains("1999-01"))
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, "2024-03", Period("https://api.chess.com/pub/player/x/games/2024/03"))
	assert.Equal(t, "2024-03", Period("https://api.chess.com/pub/player/x/games/2024/03/"))
	assert.Equal(t, "", Period("x"))
}
