package avatar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// Narrow adapter over *minio.Client so tests can run without a server.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioWrapper struct{ c *minio.Client }

func (w minioWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}

func (w minioWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}

func (w minioWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

// Store keeps uploaded avatars in an S3-compatible bucket and hands back
// publicly addressable URLs.
type Store struct {
	api      objectAPI
	bucket   string
	endpoint string
	useSSL   bool
}

func NewStore(ctx context.Context, client *minio.Client, bucket, endpoint string, useSSL bool) (*Store, error) {
	return newStoreWithAPI(ctx, minioWrapper{c: client}, bucket, endpoint, useSSL)
}

func newStoreWithAPI(ctx context.Context, api objectAPI, bucket, endpoint string, useSSL bool) (*Store, error) {
	s := &Store{
		api:      api,
		bucket:   bucket,
		endpoint: endpoint,
		useSSL:   useSSL,
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Upload stores the avatar under a key derived from the owner's email, so
// a later upload for the same account overwrites the previous object.
func (s *Store) Upload(ctx context.Context, email string, r io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(email)
	_, err := s.api.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return s.urlFor(key), nil
}

func (s *Store) urlFor(key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}

func ObjectKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return "avatars/" + hex.EncodeToString(sum[:16])
}
