package sources

import (
	"context"
	stderrors "errors"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// S3API is the subset of the S3 client the source needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options configures an S3 source.
type S3Options struct {
	// Name labels the source in logs and metrics. Defaults to "s3".
	Name    string
	TTL     time.Duration
	Metrics *metrics.Metrics
}

// S3 serves packs from s3://<bucket>/<prefix>/<pack>/...
type S3 struct {
	name    string
	client  S3API
	bucket  string
	prefix  string
	cache   *Cache
	metrics *metrics.Metrics
}

// ParseS3URL splits "s3://bucket/prefix" into bucket and prefix.
func ParseS3URL(u string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(u, "s3://")
	if !ok {
		return "", "", errors.Newf(errors.ErrInvalidInput, "invalid S3 location %q, expected s3://bucket/prefix", u)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.Newf(errors.ErrInvalidInput, "invalid S3 location %q, missing bucket", u)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// NewS3 creates a source reading from bucket under prefix.
func NewS3(client S3API, bucket, prefix string, opts S3Options) *S3 {
	if opts.Name == "" {
		opts.Name = "s3"
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	return &S3{
		name:    opts.Name,
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		cache:   NewCache(opts.TTL),
		metrics: opts.Metrics,
	}
}

func (s *S3) key(elem ...string) string {
	return path.Join(append([]string{s.prefix}, elem...)...)
}

func (s *S3) getObject(ctx context.Context, key, kind string) ([]byte, error) {
	v, hit, err := s.cache.GetOrFetch(key, func() (interface{}, error) {
		return s.fetchObject(ctx, key, kind)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		s.metrics.CacheHit(s.name)
	}
	return v.([]byte), nil
}

func (s *S3) fetchObject(ctx context.Context, key, kind string) (data []byte, err error) {
	ctx, span := tracer.Start(ctx, "sources.fetch", trace.WithAttributes(
		attribute.String("zcc.source", s.name),
		attribute.String("zcc.fetch.kind", kind),
		attribute.String("s3.bucket", s.bucket),
		attribute.String("s3.key", key),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.SourceFetch(s.name, kind, err)
	}()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if stderrors.As(err, &noKey) {
			return nil, errors.Newf(errors.ErrNotFound, "s3://%s/%s not found", s.bucket, key)
		}
		return nil, errors.Wrapf(err, errors.ErrFetch, "cannot get s3://%s/%s", s.bucket, key)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err = io.ReadAll(io.LimitReader(out.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "cannot read s3://%s/%s", s.bucket, key)
	}
	return data, nil
}

// ListPacks lists the common prefixes under the source prefix that hold a
// manifest.json.
func (s *S3) ListPacks(ctx context.Context) ([]string, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(listPrefix),
		Delimiter: aws.String("/"),
	})

	var candidates []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.metrics.SourceFetch(s.name, "index", err)
			return nil, errors.Wrapf(err, errors.ErrFetch, "cannot list s3://%s/%s", s.bucket, listPrefix)
		}
		s.metrics.SourceFetch(s.name, "index", nil)
		for _, cp := range page.CommonPrefixes {
			dir := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), listPrefix), "/")
			if dir != "" {
				candidates = append(candidates, dir)
			}
		}
	}

	names := []string{}
	for _, dir := range candidates {
		if _, err := s.getObject(ctx, s.key(dir, manifest.FileName), "manifest"); err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		names = append(names, dir)
	}
	sort.Strings(names)
	return names, nil
}

// LoadPack fetches and validates the pack manifest.
func (s *S3) LoadPack(ctx context.Context, name string) (*manifest.Structure, error) {
	if name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "pack name is required")
	}

	data, err := s.getObject(ctx, s.key(name, manifest.FileName), "manifest")
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Newf(errors.ErrNotFound, "pack %q not found in s3://%s", name, s.bucket)
		}
		return nil, err
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "pack %q has an invalid manifest", name)
	}

	packPath := "s3://" + s.bucket + "/" + s.key(name)
	return &manifest.Structure{
		Manifest:       m,
		Path:           packPath,
		ComponentsPath: packPath + "/components",
	}, nil
}

// HasPack reports whether the manifest object exists.
func (s *S3) HasPack(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	_, err := s.getObject(ctx, s.key(name, manifest.FileName), "manifest")
	return err == nil
}

// HasComponent reports whether the component object exists.
func (s *S3) HasComponent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) bool {
	_, err := s.ComponentContent(ctx, pack, componentType, name)
	return err == nil
}

// ComponentPath returns the s3:// location of a component.
func (s *S3) ComponentPath(pack string, componentType manifest.ComponentType, name string) string {
	return "s3://" + s.bucket + "/" + s.key(pack, componentRelPath(componentType, name))
}

// ComponentContent fetches the component object.
func (s *S3) ComponentContent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) ([]byte, error) {
	return s.getObject(ctx, s.key(pack, componentRelPath(componentType, name)), "component")
}

// ClearCache drops every cached object.
func (s *S3) ClearCache() {
	s.cache.Clear()
}
