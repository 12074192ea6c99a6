package api

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/photogallery/config"
)

// fakeS3 serves a bucket from memory, listing one key per page.
type fakeS3 struct {
	objects map[string]string
	listErr error
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		for i, k := range keys {
			if k == tok {
				start = i
			}
		}
	}
	out := &s3.ListObjectsV2Output{}
	if start < len(keys) {
		out.Contents = []s3types.Object{{Key: aws.String(keys[start])}}
	}
	if start+1 < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[start+1])
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func TestRemoteManagerSync(t *testing.T) {
	out := filepath.Join(t.TempDir(), "photos", "remote")
	fake := &fakeS3{objects: map[string]string{
		"a.jpg":        "aaa",
		"b.png":        "bb",
		"readme.md":    "skip",
		"nested/c.jpg": "skip",
	}}
	r, err := newRemoteManager(fake, "bucket", out)
	require.NoError(t, err)

	writeFiles(t, out, "stale.jpg")

	require.NoError(t, r.SyncFolder(context.Background()))
	assert.Len(t, r.Updated, 1)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.jpg", "b.png"}, names)

	data, err := os.ReadFile(filepath.Join(out, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "aaa", string(data))

	<-r.Updated
	require.NoError(t, r.SyncFolder(context.Background()))
	assert.Empty(t, r.Updated, "an unchanged bucket signals nothing")
}

func TestRemoteManagerListError(t *testing.T) {
	out := filepath.Join(t.TempDir(), "remote")
	r, err := newRemoteManager(&fakeS3{listErr: errors.New("denied")}, "bucket", out)
	require.NoError(t, err)
	writeFiles(t, out, "keep.jpg")

	assert.Error(t, r.SyncFolder(context.Background()))
	assert.FileExists(t, filepath.Join(out, "keep.jpg"), "local files survive a failed listing")
}

func TestNewRemoteManagerRequiresBucket(t *testing.T) {
	_, err := NewRemoteManager(context.Background(), &config.Config{RootPath: t.TempDir()})
	assert.ErrorIs(t, err, errNoBucket)
}
