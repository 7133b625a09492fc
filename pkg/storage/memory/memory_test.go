package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yi-nology/cos_bridge/pkg/storage/object"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Bucket: "b"})

	res, err := s.PutObject(ctx, "docs/a.txt", strings.NewReader("hello"), "text/plain", 5)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "memory://b/docs/a.txt", res.Location)

	rc, err := s.GetObject(ctx, "docs/a.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, s.DeleteObject(ctx, "docs/a.txt"))
	_, err = s.GetObject(ctx, "docs/a.txt")
	assert.True(t, errors.Is(err, object.ErrNotFound))
}

func TestListObjectsPages(t *testing.T) {
	ctx := context.Background()
	s := New(Config{ListPageSize: 2})
	for i := 0; i < 5; i++ {
		_, err := s.PutObject(ctx, fmt.Sprintf("p/%d", i), strings.NewReader("x"), "", 1)
		require.NoError(t, err)
	}
	_, err := s.PutObject(ctx, "other", strings.NewReader("x"), "", 1)
	require.NoError(t, err)

	var all []string
	token := ""
	for {
		page, err := s.ListObjects(ctx, "p/", token)
		require.NoError(t, err)
		all = append(all, page.Keys...)
		if !page.IsTruncated {
			break
		}
		token = page.NextToken
	}
	assert.Equal(t, []string{"p/0", "p/1", "p/2", "p/3", "p/4"}, all)
}

func TestMultipartRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(Config{})

	id, err := s.CreateMultipartUpload(ctx, "big.bin", "")
	require.NoError(t, err)
	e2, err := s.UploadPart(ctx, "big.bin", id, 2, strings.NewReader("BB"), 2)
	require.NoError(t, err)
	e1, err := s.UploadPart(ctx, "big.bin", id, 1, strings.NewReader("AA"), 2)
	require.NoError(t, err)

	_, err = s.CompleteMultipartUpload(ctx, "big.bin", id, []object.CompletedPart{{PartNumber: 1, ETag: e2}})
	require.Error(t, err, "etag of part 2 must not validate part 1")

	_, err = s.CompleteMultipartUpload(ctx, "big.bin", id, []object.CompletedPart{{PartNumber: 2, ETag: e2}, {PartNumber: 1, ETag: e1}})
	require.NoError(t, err)

	rc, err := s.GetObject(ctx, "big.bin")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "AABB", string(body))

	_, err = s.UploadPart(ctx, "big.bin", id, 3, strings.NewReader("CC"), 2)
	assert.True(t, errors.Is(err, object.ErrNotFound), "session is gone after completion")
}

func TestAbortMultipart(t *testing.T) {
	ctx := context.Background()
	s := New(Config{})
	id, err := s.CreateMultipartUpload(ctx, "k", "")
	require.NoError(t, err)
	require.NoError(t, s.AbortMultipartUpload(ctx, "k", id))
	assert.Error(t, s.AbortMultipartUpload(ctx, "k", id))
}
