package repository

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
	apperrors "github.com/allisson/billvault/internal/errors"
)

// MinioConfig holds the connection settings of an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

// MinioObjectStore stores artifacts in an S3-compatible bucket through minio-go.
type MinioObjectStore struct {
	client *minio.Client
	bucket string
}

// NewMinioObjectStore connects to the endpoint and creates the bucket when missing.
func NewMinioObjectStore(ctx context.Context, cfg MinioConfig) (*MinioObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to check artifact bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, apperrors.Wrap(err, "failed to create artifact bucket")
		}
	}

	return &MinioObjectStore{client: client, bucket: cfg.Bucket}, nil
}

// Put writes object under name, replacing any previous object.
func (s *MinioObjectStore) Put(ctx context.Context, name string, object *artifactDomain.Object) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		name,
		bytes.NewReader(object.Data),
		int64(len(object.Data)),
		minio.PutObjectOptions{
			ContentType:  ciphertextContentType,
			UserMetadata: object.Metadata,
		},
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to write artifact object")
	}
	return nil
}

// Get reads the object stored under name.
func (s *MinioObjectStore) Get(ctx context.Context, name string) (*artifactDomain.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(err, "failed to read artifact object")
	}
	defer func() {
		_ = obj.Close()
	}()

	info, err := obj.Stat()
	if err != nil {
		return nil, s.mapError(err, "failed to read artifact attributes")
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(err, "failed to read artifact object")
	}

	// minio returns user metadata with canonical header casing.
	metadata := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		metadata[strings.ToLower(k)] = v
	}

	return &artifactDomain.Object{Data: data, Metadata: metadata}, nil
}

// Exists reports whether an object is stored under name.
func (s *MinioObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to check artifact object")
	}
	return true, nil
}

// Delete removes the object stored under name. S3 deletes are idempotent, so
// the object is looked up first to report a missing one.
func (s *MinioObjectStore) Delete(ctx context.Context, name string) error {
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return artifactDomain.ErrArtifactNotFound
	}

	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Wrap(err, "failed to delete artifact object")
	}
	return nil
}

// Close is a no-op; the minio client holds no resources that need releasing.
func (s *MinioObjectStore) Close() error {
	return nil
}

func (s *MinioObjectStore) mapError(err error, message string) error {
	if isNoSuchKey(err) {
		return artifactDomain.ErrArtifactNotFound
	}
	return apperrors.Wrap(err, message)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
