// pkg/packs/sources/s3_test.go
// TEST TYPE: Unit Tests
// DEPENDENCIES: In-memory S3API fake
// PURPOSE: Test the S3 source against a bucket layout

package sources

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	gets    int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets++
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	prefix := aws.ToString(in.Prefix)
	seen := map[string]bool{}
	for key := range f.objects {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		if dir, _, isDir := strings.Cut(rest, "/"); isDir {
			seen[prefix+dir+"/"] = true
		}
	}
	var prefixes []string
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, p := range prefixes {
		out.CommonPrefixes = append(out.CommonPrefixes, s3types.CommonPrefix{Prefix: aws.String(p)})
	}
	return out, nil
}

func TestParseS3URL(t *testing.T) {
	bucket, prefix, err := ParseS3URL("s3://team-packs/starters/")
	require.NoError(t, err)
	assert.Equal(t, "team-packs", bucket)
	assert.Equal(t, "starters", prefix)

	bucket, prefix, err = ParseS3URL("s3://team-packs")
	require.NoError(t, err)
	assert.Equal(t, "team-packs", bucket)
	assert.Empty(t, prefix)

	for _, bad := range []string{"https://x", "s3://", "s3:///prefix"} {
		_, _, err := ParseS3URL(bad)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), bad)
	}
}

func TestS3_ListAndLoad(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"starters/alpha/manifest.json":                manifestJSON("alpha"),
		"starters/alpha/components/modes/engineer.md": "# Engineer",
		"starters/beta/manifest.json":                 manifestJSON("beta"),
		"starters/assets/logo.png":                    "png",
		"other/gamma/manifest.json":                   manifestJSON("gamma"),
	}}
	src := NewS3(fake, "team-packs", "starters", S3Options{})
	ctx := context.Background()

	names, err := src.ListPacks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	structure, err := src.LoadPack(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "s3://team-packs/starters/alpha", structure.Path)

	_, err = src.LoadPack(ctx, "gamma")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	assert.Equal(t, "s3://team-packs/starters/alpha/components/modes/engineer.md",
		src.ComponentPath("alpha", manifest.ComponentMode, "engineer"))
	content, err := src.ComponentContent(ctx, "alpha", manifest.ComponentMode, "engineer")
	require.NoError(t, err)
	assert.Equal(t, "# Engineer", string(content))
	assert.False(t, src.HasComponent(ctx, "alpha", manifest.ComponentWorkflow, "ship"))
}

func TestS3_CachesObjects(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"alpha/manifest.json": manifestJSON("alpha")}}
	src := NewS3(fake, "bucket", "", S3Options{})
	ctx := context.Background()

	assert.True(t, src.HasPack(ctx, "alpha"))
	_, err := src.LoadPack(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.gets)

	src.ClearCache()
	_, err = src.LoadPack(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.gets)
}
