package cli

import (
	"context"
	"os"
	"strings"

	"github.com/arthur-debert/zcc/pkg/config"
	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// defaultS3Region is used when neither the source nor AWS_REGION names one.
const defaultS3Region = "us-east-1"

// buildSource turns a configured source into a pack source.
func buildSource(fs types.FS, sc config.SourceConfig, network config.Network, m *metrics.Metrics) (sources.Source, error) {
	ttl := network.CacheTTL
	if sc.CacheTTL > 0 {
		ttl = sc.CacheTTL
	}

	switch strings.ToLower(sc.Type) {
	case config.SourceLocal:
		return sources.NewLocal(fs, paths.ExpandHome(sc.Path)), nil

	case config.SourceHTTP:
		return sources.NewHTTP(sc.URL, sources.HTTPOptions{
			Name:    sc.Name,
			Token:   sc.Token,
			TTL:     ttl,
			Timeout: network.Timeout,
			Metrics: m,
		}), nil

	case config.SourceGitHub:
		return sources.NewGitHub(sc.Owner, sc.Repo, sources.GitHubOptions{
			Name:    sc.Name,
			Branch:  sc.Branch,
			Path:    sc.Path,
			Token:   sc.Token,
			TTL:     ttl,
			Timeout: network.Timeout,
			Metrics: m,
		}), nil

	case config.SourceS3:
		bucket, prefix := sc.Bucket, sc.Prefix
		if bucket == "" {
			var err error
			if bucket, prefix, err = sources.ParseS3URL(sc.Path); err != nil {
				return nil, err
			}
		}
		return sources.NewS3(newS3Client(sc.Region), bucket, prefix, sources.S3Options{
			Name:    sc.Name,
			TTL:     ttl,
			Metrics: m,
		}), nil
	}
	return nil, errors.Newf(errors.ErrConfigParse, "source %q has unknown type %q", sc.Name, sc.Type)
}

// newS3Client builds a client from the standard AWS environment variables.
// Without an access key, requests are anonymous, which is enough for public
// pack buckets.
func newS3Client(region string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = defaultS3Region
	}

	opts := s3.Options{Region: region, Credentials: aws.AnonymousCredentials{}}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		creds := aws.Credentials{
			AccessKeyID:     key,
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL_S3"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}
