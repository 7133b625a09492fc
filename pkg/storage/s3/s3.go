// Package s3 implements the COS / S3-compatible object storage adapter.
// Tencent COS exposes an S3-compatible endpoint (https://cos.<region>.myqcloud.com),
// so the same adapter also serves AWS S3 and MinIO.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithymiddleware "github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.uber.org/zap"

	"github.com/yi-nology/cos_bridge/pkg/logging"
	"github.com/yi-nology/cos_bridge/pkg/metrics"
	"github.com/yi-nology/cos_bridge/pkg/storage/object"
)

const backendType = "s3"

// Config holds S3 storage configuration.
type Config struct {
	// Endpoint defaults to the COS endpoint of Region when empty.
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PathStyle    bool // Use path-style URLs (required for MinIO)
	ListPageSize int
}

// Storage implements storage.Storage on top of aws-sdk-go-v2.
type Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	region        string
	endpoint      *url.URL
	pathStyle     bool
	pageSize      int32
}

// New creates a new S3 storage adapter.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("access key and secret key are required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = fmt.Sprintf("https://cos.%s.myqcloud.com", cfg.Region)
	}
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", cfg.Endpoint)
	}
	if cfg.ListPageSize <= 0 || cfg.ListPageSize > object.DefaultListPageSize {
		cfg.ListPageSize = object.DefaultListPageSize
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.PathStyle
		// COS and MinIO reject the default CRC32 trailers on some calls.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &Storage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		endpoint:      endpoint,
		pathStyle:     cfg.PathStyle,
		pageSize:      int32(cfg.ListPageSize),
	}, nil
}

// PutObject uploads a whole object.
func (s *Storage) PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) (*object.PutResult, error) {
	start := time.Now()
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	out, err := s.client.PutObject(ctx, input)
	observe("put_object", start, err)
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	metrics.RecordUploadBytes(size)

	result := &object.PutResult{
		StatusCode: rawStatus(out.ResultMetadata),
		ETag:       aws.ToString(out.ETag),
		VersionID:  aws.ToString(out.VersionId),
		Location:   s.objectURL(key),
	}
	if id, ok := awsmiddleware.GetRequestIDMetadata(out.ResultMetadata); ok {
		result.RequestID = id
	}
	logging.WithContext(ctx).Debug("s3 put object", zap.String("key", key), zap.Int64("size", size), zap.Int("status", result.StatusCode))
	return result, nil
}

// GetObject retrieves an object.
func (s *Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	observe("get_object", start, err)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get object %s: %w", key, object.ErrNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}

// DeleteObject removes a single object. Missing keys are not an error.
func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	start := time.Now()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	observe("delete_object", start, err)
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	logging.WithContext(ctx).Debug("s3 delete object", zap.String("key", key))
	return nil
}

// DeleteObjects removes keys in batches of at most one listing page.
func (s *Storage) DeleteObjects(ctx context.Context, keys []string) error {
	for len(keys) > 0 {
		n := min(len(keys), object.DefaultListPageSize)
		if err := s.deleteBatch(ctx, keys[:n]); err != nil {
			return err
		}
		keys = keys[n:]
	}
	return nil
}

func (s *Storage) deleteBatch(ctx context.Context, keys []string) error {
	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
	}

	start := time.Now()
	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err == nil && len(out.Errors) > 0 {
		first := out.Errors[0]
		err = fmt.Errorf("%d of %d keys not deleted, first %s: %s %s",
			len(out.Errors), len(keys), aws.ToString(first.Key), aws.ToString(first.Code), aws.ToString(first.Message))
	}
	observe("delete_objects", start, err)
	if err != nil {
		return fmt.Errorf("delete objects: %w", err)
	}
	logging.WithContext(ctx).Debug("s3 delete objects", zap.Int("count", len(keys)))
	return nil
}

// ListObjects returns one ListObjectsV2 page under prefix.
func (s *Storage) ListObjects(ctx context.Context, prefix, token string) (*object.ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(s.pageSize),
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	start := time.Now()
	out, err := s.client.ListObjectsV2(ctx, input)
	observe("list_objects", start, err)
	if err != nil {
		return nil, fmt.Errorf("list objects %s: %w", prefix, err)
	}

	page := &object.ListPage{
		Keys:        make([]string, 0, len(out.Contents)),
		IsTruncated: aws.ToBool(out.IsTruncated),
		NextToken:   aws.ToString(out.NextContinuationToken),
	}
	for _, item := range out.Contents {
		page.Keys = append(page.Keys, aws.ToString(item.Key))
	}
	return page, nil
}

// ObjectExists checks if an object exists.
func (s *Storage) ObjectExists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && isNotFound(err) {
		observe("head_object", start, nil)
		return false, nil
	}
	observe("head_object", start, err)
	if err != nil {
		return false, fmt.Errorf("head object %s: %w", key, err)
	}
	return true, nil
}

// SignedURL presigns a GET for key.
func (s *Storage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign url: %w", err)
	}
	return req.URL, nil
}

// CreateMultipartUpload starts a multipart upload and returns its upload id.
func (s *Storage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	start := time.Now()
	out, err := s.client.CreateMultipartUpload(ctx, input)
	observe("multipart_init", start, err)
	if err != nil {
		return "", fmt.Errorf("init multipart %s: %w", key, err)
	}
	return aws.ToString(out.UploadId), nil
}

// UploadPart uploads one part and returns its ETag.
func (s *Storage) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data io.Reader, size int64) (string, error) {
	start := time.Now()
	out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          data,
		ContentLength: aws.Int64(size),
	})
	observe("multipart_upload", start, err)
	if err != nil {
		return "", fmt.Errorf("upload part %d of %s: %w", partNumber, key, err)
	}
	metrics.RecordUploadBytes(size)
	return aws.ToString(out.ETag), nil
}

// CompleteMultipartUpload assembles the uploaded parts and returns the object location.
func (s *Storage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []object.CompletedPart) (string, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range object.SortParts(parts) {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		})
	}

	start := time.Now()
	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	observe("multipart_complete", start, err)
	if err != nil {
		return "", fmt.Errorf("complete multipart %s: %w", key, err)
	}
	if loc := aws.ToString(out.Location); loc != "" {
		return loc, nil
	}
	return s.objectURL(key), nil
}

// AbortMultipartUpload discards an in-flight upload and its parts.
func (s *Storage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	start := time.Now()
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	observe("multipart_abort", start, err)
	if err != nil {
		return fmt.Errorf("abort multipart %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Bucket() string { return s.bucket }

func (s *Storage) Region() string { return s.region }

// Type returns "s3" as the storage type identifier.
func (s *Storage) Type() string { return backendType }

// objectURL builds the unsigned address of key, matching the Location COS reports.
func (s *Storage) objectURL(key string) string {
	escaped := escapeKey(key)
	if s.pathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", s.endpoint.Scheme, s.endpoint.Host, s.bucket, escaped)
	}
	return fmt.Sprintf("%s://%s.%s/%s", s.endpoint.Scheme, s.bucket, s.endpoint.Host, escaped)
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func rawStatus(md smithymiddleware.Metadata) int {
	if resp, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && resp != nil {
		return resp.StatusCode
	}
	return 0
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchUpload":
			return true
		}
	}
	return false
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(backendType, op, time.Since(start), err == nil)
}
