package sources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultGitHubAPI is the public GitHub REST endpoint.
	DefaultGitHubAPI = "https://api.github.com"
	// DefaultGitHubRaw serves raw file content.
	DefaultGitHubRaw = "https://raw.githubusercontent.com"

	defaultBranch = "main"
	listWorkers   = 4
)

// GitHubOptions configures a GitHub source.
type GitHubOptions struct {
	// Name labels the source in logs and metrics. Defaults to "github".
	Name string
	// Branch to read from. Defaults to "main".
	Branch string
	// Path inside the repository holding the pack directories.
	Path string
	// Token is sent as "Authorization: token <token>".
	Token   string
	TTL     time.Duration
	Timeout time.Duration
	// APIBaseURL and RawBaseURL override the public endpoints.
	APIBaseURL string
	RawBaseURL string
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// GitHub serves packs from a directory of a GitHub repository through the
// contents API.
type GitHub struct {
	name    string
	owner   string
	repo    string
	branch  string
	prefix  string
	apiURL  string
	rawURL  string
	client  *http.Client
	auth    Authenticator
	cache   *Cache
	metrics *metrics.Metrics
}

// contentEntry is one item of a contents API response.
type contentEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// NewGitHub creates a source for owner/repo.
func NewGitHub(owner, repo string, opts GitHubOptions) *GitHub {
	if opts.Name == "" {
		opts.Name = "github"
	}
	if opts.Branch == "" {
		opts.Branch = defaultBranch
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultGitHubAPI
	}
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = DefaultGitHubRaw
	}

	var auth Authenticator = &NoAuth{}
	if opts.Token != "" {
		auth = &TokenAuth{Token: opts.Token}
	}

	return &GitHub{
		name:    opts.Name,
		owner:   owner,
		repo:    repo,
		branch:  opts.Branch,
		prefix:  strings.Trim(opts.Path, "/"),
		apiURL:  strings.TrimRight(opts.APIBaseURL, "/"),
		rawURL:  strings.TrimRight(opts.RawBaseURL, "/"),
		client:  newHTTPClient(opts.HTTPClient, opts.Timeout),
		auth:    auth,
		cache:   NewCache(opts.TTL),
		metrics: opts.Metrics,
	}
}

// ParseRepo splits "owner/repo" into its parts.
func ParseRepo(s string) (owner, repo string, err error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Newf(errors.ErrInvalidInput, "invalid repository %q, expected owner/repo", s)
	}
	return parts[0], parts[1], nil
}

func (g *GitHub) repoPath(elem ...string) string {
	return path.Join(append([]string{g.prefix}, elem...)...)
}

func (g *GitHub) contentsURL(p string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", g.apiURL, g.owner, g.repo, p, g.branch)
}

// githubStatusError maps rate limiting, reported as 403 or 429 with an
// exhausted X-RateLimit-Remaining, to ErrRateLimited.
func githubStatusError(resp *http.Response, url string) error {
	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.StatusCode == http.StatusTooManyRequests || resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return errors.New(errors.ErrRateLimited, "GitHub API rate limit exceeded").
				WithDetail("url", url).
				WithDetail("reset", resp.Header.Get("X-RateLimit-Reset"))
		}
	}
	return defaultStatusError(resp, url)
}

func (g *GitHub) get(ctx context.Context, url, kind string) ([]byte, error) {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	v, hit, err := g.cache.GetOrFetch(url, func() (interface{}, error) {
		return httpGet(ctx, g.client, g.auth, url, headers, githubStatusError, g.metrics, g.name, kind)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		g.metrics.CacheHit(g.name)
	}
	return v.([]byte), nil
}

// listDir returns the entries of a repository directory.
func (g *GitHub) listDir(ctx context.Context, p string) ([]contentEntry, error) {
	url := g.contentsURL(p)
	data, err := g.get(ctx, url, "index")
	if err != nil {
		return nil, err
	}
	var entries []contentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "unexpected contents response for %s", p).
			WithDetail("url", url)
	}
	return entries, nil
}

// readFile returns the decoded content of a repository file.
func (g *GitHub) readFile(ctx context.Context, p, kind string) ([]byte, error) {
	url := g.contentsURL(p)
	data, err := g.get(ctx, url, kind)
	if err != nil {
		return nil, err
	}

	var entry contentEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Type != "file" {
		return nil, errors.Newf(errors.ErrFetch, "%s is not a file", p).WithDetail("url", url)
	}
	if entry.Encoding != "base64" {
		return []byte(entry.Content), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(entry.Content, "\n", ""))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "cannot decode %s", p).WithDetail("url", url)
	}
	return decoded, nil
}

// ListPacks lists directories under the configured path that contain a
// manifest.json. Directories are inspected concurrently.
func (g *GitHub) ListPacks(ctx context.Context) ([]string, error) {
	root, err := g.listDir(ctx, g.repoPath())
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		names = []string{}
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(listWorkers)

	for _, entry := range root {
		if entry.Type != "dir" {
			continue
		}
		dir := entry.Name
		eg.Go(func() error {
			children, err := g.listDir(egCtx, g.repoPath(dir))
			if err != nil {
				if errors.IsErrorCode(err, errors.ErrRateLimited) {
					return err
				}
				logger := logging.GetLogger("sources.github")
				logger.Debug().Err(err).Str("dir", dir).Msg("skipping directory")
				return nil
			}
			for _, child := range children {
				if child.Type == "file" && child.Name == manifest.FileName {
					mu.Lock()
					names = append(names, dir)
					mu.Unlock()
					break
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// LoadPack fetches and validates the pack manifest.
func (g *GitHub) LoadPack(ctx context.Context, name string) (*manifest.Structure, error) {
	if name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "pack name is required")
	}

	data, err := g.readFile(ctx, g.repoPath(name, manifest.FileName), "manifest")
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Newf(errors.ErrNotFound, "pack %q not found in %s/%s", name, g.owner, g.repo)
		}
		return nil, err
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "pack %q has an invalid manifest", name)
	}

	tree := fmt.Sprintf("https://github.com/%s/%s/tree/%s/%s", g.owner, g.repo, g.branch, g.repoPath(name))
	return &manifest.Structure{
		Manifest:       m,
		Path:           tree,
		ComponentsPath: tree + "/components",
	}, nil
}

// HasPack reports whether the manifest can be fetched.
func (g *GitHub) HasPack(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	_, err := g.readFile(ctx, g.repoPath(name, manifest.FileName), "manifest")
	return err == nil
}

// HasComponent reports whether the component can be fetched.
func (g *GitHub) HasComponent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) bool {
	_, err := g.ComponentContent(ctx, pack, componentType, name)
	return err == nil
}

// ComponentPath returns the raw content URL of a component.
func (g *GitHub) ComponentPath(pack string, componentType manifest.ComponentType, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", g.rawURL, g.owner, g.repo, g.branch,
		g.repoPath(pack, componentRelPath(componentType, name)))
}

// ComponentContent fetches a component through the contents API.
func (g *GitHub) ComponentContent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) ([]byte, error) {
	return g.readFile(ctx, g.repoPath(pack, componentRelPath(componentType, name)), "component")
}

// ClearCache drops every cached response.
func (g *GitHub) ClearCache() {
	g.cache.Clear()
}
