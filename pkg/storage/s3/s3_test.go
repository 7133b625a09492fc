package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, Config{AccessKey: "a", SecretKey: "b", Region: "ap-guangzhou"})
	assert.Error(t, err, "bucket is required")

	_, err = New(ctx, Config{Bucket: "b", Region: "ap-guangzhou"})
	assert.Error(t, err, "credentials are required")

	s, err := New(ctx, Config{Bucket: "newbie-cos-bucket-001", AccessKey: "a", SecretKey: "b", Region: "ap-guangzhou"})
	require.NoError(t, err)
	assert.Equal(t, "cos.ap-guangzhou.myqcloud.com", s.endpoint.Host)
	assert.Equal(t, int32(1000), s.pageSize)
	assert.Equal(t, "s3", s.Type())
	assert.Equal(t, "ap-guangzhou", s.Region())
}

func TestObjectURL(t *testing.T) {
	endpoint, _ := url.Parse("https://cos.ap-guangzhou.myqcloud.com")
	s := &Storage{bucket: "bkt", endpoint: endpoint}
	assert.Equal(t, "https://bkt.cos.ap-guangzhou.myqcloud.com/a/b%20c.pdf", s.objectURL("a/b c.pdf"))

	minio, _ := url.Parse("http://localhost:9000")
	s = &Storage{bucket: "bkt", endpoint: minio, pathStyle: true}
	assert.Equal(t, "http://localhost:9000/bkt/a/b.pdf", s.objectURL("a/b.pdf"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NoSuchKey{})))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchUpload"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}
