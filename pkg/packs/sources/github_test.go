// pkg/packs/sources/github_test.go
// TEST TYPE: Integration Tests
// DEPENDENCIES: httptest server emulating the GitHub contents API
// PURPOSE: Test listing, base64 decoding, auth and rate-limit mapping

package sources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves the contents API for a flat map of repository files.
type fakeGitHub struct {
	files       map[string]string
	rateLimited bool

	mu   sync.Mutex
	auth string
}

func (f *fakeGitHub) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = r.Header.Get("Authorization")
	f.mu.Unlock()
	if f.rateLimited {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	const prefix = "/repos/acme/packs/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) || r.URL.Query().Get("ref") != "main" {
		http.NotFound(w, r)
		return
	}
	p := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")

	if content, ok := f.files[p]; ok {
		_ = json.NewEncoder(w).Encode(contentEntry{
			Name:     p[strings.LastIndex(p, "/")+1:],
			Path:     p,
			Type:     "file",
			Encoding: "base64",
			Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		})
		return
	}

	seen := map[string]bool{}
	var entries []contentEntry
	for file := range f.files {
		rest := file
		if p != "" {
			if !strings.HasPrefix(file, p+"/") {
				continue
			}
			rest = strings.TrimPrefix(file, p+"/")
		}
		name, _, isDir := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		typ := "file"
		if isDir {
			typ = "dir"
		}
		entries = append(entries, contentEntry{Name: name, Path: strings.Trim(p+"/"+name, "/"), Type: typ})
	}
	if len(entries) == 0 {
		http.NotFound(w, r)
		return
	}
	_ = json.NewEncoder(w).Encode(entries)
}

func newFakeGitHub(t *testing.T, files map[string]string, rateLimited bool) (*fakeGitHub, *GitHub) {
	t.Helper()
	fake := &fakeGitHub{files: files, rateLimited: rateLimited}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	src := NewGitHub("acme", "packs", GitHubOptions{
		Path:       "starters",
		Token:      "ghp_test",
		APIBaseURL: srv.URL,
		RawBaseURL: "https://raw.example.com",
	})
	return fake, src
}

func TestGitHub_ListAndLoad(t *testing.T) {
	fake, src := newFakeGitHub(t, map[string]string{
		"starters/alpha/manifest.json":                manifestJSON("alpha"),
		"starters/alpha/components/modes/engineer.md": "# Engineer",
		"starters/beta/manifest.json":                 manifestJSON("beta", "alpha"),
		"starters/docs/README.md":                     "not a pack",
		"starters/index.md":                           "file at root",
	}, false)
	ctx := context.Background()

	names, err := src.ListPacks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
	assert.Equal(t, "token ghp_test", fake.lastAuth())

	structure, err := src.LoadPack(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, structure.Manifest.Dependencies)
	assert.Equal(t, "https://github.com/acme/packs/tree/main/starters/beta", structure.Path)

	content, err := src.ComponentContent(ctx, "alpha", manifest.ComponentMode, "engineer")
	require.NoError(t, err)
	assert.Equal(t, "# Engineer", string(content))
	assert.True(t, src.HasComponent(ctx, "alpha", manifest.ComponentMode, "engineer"))
	assert.False(t, src.HasComponent(ctx, "alpha", manifest.ComponentAgent, "engineer"))
	assert.Equal(t, "https://raw.example.com/acme/packs/main/starters/alpha/components/modes/engineer.md",
		src.ComponentPath("alpha", manifest.ComponentMode, "engineer"))

	_, err = src.LoadPack(ctx, "docs")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.False(t, src.HasPack(ctx, "docs"))
}

func TestGitHub_RateLimited(t *testing.T) {
	_, src := newFakeGitHub(t, map[string]string{}, true)

	_, err := src.ListPacks(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrRateLimited, errors.GetErrorCode(err))
	assert.True(t, errors.IsFetchError(err))

	_, err = src.LoadPack(context.Background(), "alpha")
	assert.Equal(t, errors.ErrRateLimited, errors.GetErrorCode(err))
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo("acme/packs")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "packs", repo)

	for _, bad := range []string{"", "acme", "acme/", "a/b/c"} {
		_, _, err := ParseRepo(bad)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), bad)
	}
}
