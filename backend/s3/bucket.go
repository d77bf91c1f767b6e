// Package s3 keeps an emulator namespace in an S3 compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/dfs/backend/kv"
)

type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Prefix is prepended to every object key
	Prefix string
}

type bucket struct {
	client *minio.Client
	name   string
	prefix string
}

var _ kv.Bucket = (*bucket)(nil)

// NewStore connects to the endpoint and creates the bucket when missing.
func NewStore(ctx context.Context, cfg Config) (*kv.Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return kv.NewStore("s3", &bucket{
		client: client,
		name:   cfg.Bucket,
		prefix: cfg.Prefix,
	}), nil
}

func isMissing(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (b *bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	object, err := b.client.GetObject(ctx, b.name, b.prefix+key, minio.GetObjectOptions{})
	if err != nil {
		if isMissing(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer object.Close()

	// Missing keys only surface on the first read
	value, err := io.ReadAll(object)
	if err != nil {
		if isMissing(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (b *bucket) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.client.PutObject(ctx, b.name, b.prefix+key, bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	err := b.client.RemoveObject(ctx, b.name, b.prefix+key, minio.RemoveObjectOptions{})
	if err != nil && isMissing(err) {
		return nil
	}
	return err
}

func (b *bucket) Keys(ctx context.Context, prefix string) ([]string, error) {
	objects := b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{
		Prefix:    b.prefix + prefix,
		Recursive: true,
	})

	keys := make([]string, 0)
	for object := range objects {
		if object.Err != nil {
			return nil, object.Err
		}
		keys = append(keys, object.Key[len(b.prefix):])
	}
	return keys, nil
}

func (b *bucket) Close() error {
	return nil
}
