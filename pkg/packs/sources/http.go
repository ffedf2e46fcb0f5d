package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
)

// IndexFile is the pack listing remote HTTP sources serve at their base URL.
const IndexFile = "index.json"

// HTTPOptions configures an HTTP source.
type HTTPOptions struct {
	// Name labels the source in logs and metrics. Defaults to "http".
	Name string
	// Token, when set, is sent as a bearer token.
	Token string
	// TTL of cached fetches. Defaults to DefaultTTL.
	TTL time.Duration
	// Timeout of every request. Defaults to DefaultHTTPTimeout.
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// HTTP serves packs from a static HTTP layout:
//
//	<base>/index.json
//	<base>/<pack>/manifest.json
//	<base>/<pack>/components/<dir>/<name><ext>
type HTTP struct {
	name    string
	baseURL string
	client  *http.Client
	auth    Authenticator
	cache   *Cache
	metrics *metrics.Metrics
}

// NewHTTP creates an HTTP source for baseURL.
func NewHTTP(baseURL string, opts HTTPOptions) *HTTP {
	if opts.Name == "" {
		opts.Name = "http"
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}

	var auth Authenticator = &NoAuth{}
	if opts.Token != "" {
		auth = &BearerAuth{Token: opts.Token}
	}

	return &HTTP{
		name:    opts.Name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(opts.HTTPClient, opts.Timeout),
		auth:    auth,
		cache:   NewCache(opts.TTL),
		metrics: opts.Metrics,
	}
}

// BaseURL returns the URL packs are resolved against.
func (h *HTTP) BaseURL() string {
	return h.baseURL
}

func (h *HTTP) fetch(ctx context.Context, url, kind string) ([]byte, error) {
	v, hit, err := h.cache.GetOrFetch(url, func() (interface{}, error) {
		return httpGet(ctx, h.client, h.auth, url, nil, nil, h.metrics, h.name, kind)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		h.metrics.CacheHit(h.name)
	}
	return v.([]byte), nil
}

// ListPacks reads index.json. The index is either an array of pack names or
// an object with a "packs" array whose items are names or objects carrying
// a "name".
func (h *HTTP) ListPacks(ctx context.Context) ([]string, error) {
	url := h.baseURL + "/" + IndexFile
	data, err := h.fetch(ctx, url, "index")
	if err != nil {
		return nil, err
	}

	names, err := parseIndex(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidJSON, "invalid pack index at %s", url)
	}
	sort.Strings(names)
	return names, nil
}

type indexEntry struct {
	Name string `json:"name"`
}

func parseIndex(data []byte) ([]string, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		var wrapper struct {
			Packs []json.RawMessage `json:"packs"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		list = wrapper.Packs
	}

	names := make([]string, 0, len(list))
	for _, item := range list {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			if name != "" {
				names = append(names, name)
			}
			continue
		}
		var entry indexEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, err
		}
		if entry.Name != "" {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}

// LoadPack fetches and validates <base>/<name>/manifest.json.
func (h *HTTP) LoadPack(ctx context.Context, name string) (*manifest.Structure, error) {
	if name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "pack name is required")
	}

	packURL := h.baseURL + "/" + name
	url := packURL + "/" + manifest.FileName
	data, err := h.fetch(ctx, url, "manifest")
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Newf(errors.ErrNotFound, "pack %q not found", name).
				WithDetail("url", url)
		}
		return nil, err
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "pack %q has an invalid manifest", name).
			WithDetail("url", url)
	}

	logger := logging.GetLogger("sources.http")
	logger.Debug().
		Str("source", h.name).
		Str("pack", name).
		Msg("loaded remote manifest")

	return &manifest.Structure{
		Manifest:       m,
		Path:           packURL,
		ComponentsPath: packURL + "/components",
	}, nil
}

// HasPack reports whether the manifest can be fetched.
func (h *HTTP) HasPack(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	_, err := h.fetch(ctx, h.baseURL+"/"+name+"/"+manifest.FileName, "manifest")
	return err == nil
}

// HasComponent reports whether the component can be fetched.
func (h *HTTP) HasComponent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) bool {
	_, err := h.ComponentContent(ctx, pack, componentType, name)
	return err == nil
}

// ComponentPath returns the component URL.
func (h *HTTP) ComponentPath(pack string, componentType manifest.ComponentType, name string) string {
	return h.baseURL + "/" + pack + "/" + componentRelPath(componentType, name)
}

// ComponentContent fetches the component.
func (h *HTTP) ComponentContent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) ([]byte, error) {
	return h.fetch(ctx, h.ComponentPath(pack, componentType, name), "component")
}

// ClearCache drops every cached fetch.
func (h *HTTP) ClearCache() {
	h.cache.Clear()
}
