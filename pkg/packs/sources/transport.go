package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultHTTPTimeout bounds every request remote sources issue. There is no
// retry: a timed out fetch surfaces as ErrFetch.
const DefaultHTTPTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

var tracer = otel.Tracer("github.com/arthur-debert/zcc/pkg/packs/sources")

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BearerAuth sends "Authorization: Bearer <token>".
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// TokenAuth sends "Authorization: token <token>" as the GitHub API expects.
type TokenAuth struct {
	Token string
}

// Apply implements the Authenticator interface for TokenAuth.
func (a *TokenAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "token "+a.Token)
}

func newHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

// statusMapper turns a non-2xx response into an error.
type statusMapper func(resp *http.Response, url string) error

// defaultStatusError maps 404 to ErrNotFound and everything else to ErrFetch.
func defaultStatusError(resp *http.Response, url string) error {
	if resp.StatusCode == http.StatusNotFound {
		return errors.Newf(errors.ErrNotFound, "not found: %s", url).
			WithDetail("url", url)
	}
	return errors.Newf(errors.ErrFetch, "unexpected status %d from %s", resp.StatusCode, url).
		WithDetail("url", url).
		WithDetail("status", resp.StatusCode)
}

// httpGet performs an authenticated GET and returns the body of a 2xx
// response. Each call runs in its own span and is counted in m.
func httpGet(ctx context.Context, client *http.Client, auth Authenticator, url string, headers map[string]string, mapStatus statusMapper, m *metrics.Metrics, sourceName, kind string) (body []byte, err error) {
	ctx, span := tracer.Start(ctx, "sources.fetch", trace.WithAttributes(
		attribute.String("zcc.source", sourceName),
		attribute.String("zcc.fetch.kind", kind),
		attribute.String("http.url", url),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		m.SourceFetch(sourceName, kind, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "cannot build request for %s", url)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if auth != nil {
		auth.Apply(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "request to %s failed", url).
			WithDetail("url", url)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if mapStatus == nil {
			mapStatus = defaultStatusError
		}
		return nil, mapStatus(resp, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFetch, fmt.Sprintf("cannot read response from %s", url))
	}
	return data, nil
}
