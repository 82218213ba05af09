package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures an S3Cache.
type S3Config struct {
	Bucket   string
	Region   string
	Prefix   string // object key prefix, e.g. "cache/"
	Endpoint string // optional, for S3-compatible stores; enables path-style addressing
}

// s3API is the subset of the S3 client used by S3Cache.
type s3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Cache stores entries as objects at <prefix>qrcode/<key>.
type S3Cache struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Cache loads AWS credentials from the default chain and returns a
// cache backed by cfg.Bucket.
func NewS3Cache(ctx context.Context, cfg S3Config) (*S3Cache, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is empty")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Cache(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Cache(client s3API, bucket, prefix string) *S3Cache {
	return &S3Cache{client: client, bucket: bucket, prefix: prefix}
}

func (c *S3Cache) objectKey(key Key) string {
	return c.prefix + path.Join(Dir, string(key))
}

// Exists issues a HEAD request. Any error counts as a miss.
func (c *S3Cache) Exists(ctx context.Context, key Key) bool {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	return err == nil
}

// Read downloads the object, or returns ErrNotFound.
func (c *S3Cache) Read(ctx context.Context, key Key) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 get: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body: %w", err)
	}
	return data, nil
}

// Write uploads data, replacing any existing object.
func (c *S3Cache) Write(ctx context.Context, key Key, data []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(c.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("s3 put: %w", err)
	}
	return nil
}

// Delete removes the object. S3 reports success for missing keys.
func (c *S3Cache) Delete(ctx context.Context, key Key) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete: %w", err)
	}
	return nil
}

// Close does nothing; the S3 client holds no persistent connections of its own.
func (c *S3Cache) Close() error { return nil }

// Ensure S3Cache implements Cache.
var _ Cache = (*S3Cache)(nil)
