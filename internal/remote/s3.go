package remote

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// metadata key holding the client-computed md5 of the content. Backend
// ETags are not trusted for content comparison: multipart uploads produce
// ETags that are not a plain md5.
const md5MetadataKey = "content-md5"

// S3Config configures an S3-compatible object store. When AccessKey is
// empty, credentials resolve through the SDK default chain (env, shared
// config, instance role).
type S3Config struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
}

// S3Store implements Store on top of an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds an S3Store from config, resolving credentials once at
// construction time.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: bucket cannot be empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 store: failed to load credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, cfg.Bucket), nil
}

// NewS3StoreWithClient wraps an already-constructed S3 client. The caller
// owns the client and its credential lifecycle.
func NewS3StoreWithClient(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Exists reports whether the object exists in the bucket.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Head(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Head fetches object metadata. The content hash is taken from the
// client-written md5 metadata when present, falling back to the ETag when
// it is a plain single-part md5.
func (s *S3Store) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("head %s: %w", key, ErrNotFound)
		}
		return nil, err
	}

	return &ObjectInfo{
		Key:     key,
		Hash:    resolveHash(resp.Metadata, aws.ToString(resp.ETag)),
		Size:    aws.ToInt64(resp.ContentLength),
		ModTime: aws.ToTime(resp.LastModified),
	}, nil
}

// Upload stores the local file as key, recording the client-computed md5
// both as the Content-MD5 integrity check and as object metadata.
func (s *S3Store) Upload(ctx context.Context, localPath, key, hash string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	input := &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}

	if hash != "" {
		contentMD5, err := hexToBase64(hash)
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		input.ContentMD5 = aws.String(contentMD5)
		input.Metadata = map[string]string{md5MetadataKey: hash}
	}

	if contentType := mime.TypeByExtension(filepath.Ext(localPath)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	start := time.Now()
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return err
	}

	slog.Debug("uploaded object",
		"key", key,
		"size", info.Size(),
		"elapsed", time.Since(start),
	)
	return nil
}

// Download fetches the object and writes it over localPath.
func (s *S3Store) Download(ctx context.Context, key, localPath string) error {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("download %s: %w", key, ErrNotFound)
		}
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("download %s: %w", key, err)
	}
	return f.Close()
}

// List returns every object under prefix, paging through the full listing.
// Hashes come from ETags only; a multipart ETag leaves Hash empty and the
// reconciler falls back to modification times.
func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:     aws.ToString(obj.Key),
				Hash:    etagToHash(aws.ToString(obj.ETag)),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}

// resolveHash prefers the md5 recorded by our own uploads over the ETag.
func resolveHash(metadata map[string]string, etag string) string {
	if hash, ok := metadata[md5MetadataKey]; ok && hash != "" {
		return hash
	}
	return etagToHash(etag)
}

// etagToHash strips ETag quoting and rejects multipart ETags, which carry a
// "-<parts>" suffix and are not a content md5.
func etagToHash(etag string) string {
	etag = strings.Trim(etag, "\"")
	if etag == "" || strings.Contains(etag, "-") {
		return ""
	}
	return etag
}

func hexToBase64(hash string) (string, error) {
	raw, err := hex.DecodeString(hash)
	if err != nil {
		return "", fmt.Errorf("invalid hex hash %q: %w", hash, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

var _ Store = (*S3Store)(nil)
