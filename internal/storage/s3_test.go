package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	types   map[string]string
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(b)
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestApplyPrefix(t *testing.T) {
	tests := []struct {
		prefix, key, want string
	}{
		{"", "file.pdf", "file.pdf"},
		{"docs", "file.pdf", "docs/file.pdf"},
		{"docs/", "/file.pdf", "docs/file.pdf"},
		{"root/sub", "file.pdf", "root/sub/file.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, applyPrefix(tt.prefix, tt.key))
	}
}

func TestS3Store_SaveAndRemove(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}, types: map[string]string{}}
	s := newS3Store(fake, "bucket", " /documents/ ")
	s.now = func() time.Time { return time.UnixMilli(1714554000000) }
	ctx := context.Background()

	f, err := s.Save(ctx, "plan.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "documents/1714554000000-plan.pdf", f.Path)
	assert.Equal(t, ".pdf", f.Extension)
	assert.EqualValues(t, 8, f.Size)
	assert.Equal(t, "%PDF-1.4", fake.objects[f.Path])
	assert.Equal(t, "application/pdf", fake.types[f.Path])

	require.NoError(t, s.Remove(ctx, f.Path))
	assert.Empty(t, fake.objects)
}

func TestS3Store_SaveError(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}, types: map[string]string{}, putErr: errors.New("denied")}
	s := newS3Store(fake, "bucket", "")
	_, err := s.Save(context.Background(), "plan.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}
