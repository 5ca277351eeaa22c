// Package repository provides backing object stores for encrypted artifacts.
package repository

import (
	"context"
	"errors"
	"io"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
	apperrors "github.com/allisson/billvault/internal/errors"

	// Register bucket drivers
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// ciphertextContentType is the content type every stored object carries; the
// real type lives, encrypted, inside the payload.
const ciphertextContentType = "application/octet-stream"

// maxReadAttempts bounds how often Get retries when the object is replaced
// between its attribute and content reads.
const maxReadAttempts = 3

var errObjectReplaced = errors.New("artifact object replaced during read")

// BlobObjectStore stores artifacts in a gocloud.dev/blob bucket.
type BlobObjectStore struct {
	bucket *blob.Bucket
}

// NewBlobObjectStore wraps an open bucket.
func NewBlobObjectStore(bucket *blob.Bucket) *BlobObjectStore {
	return &BlobObjectStore{bucket: bucket}
}

// OpenBlobObjectStore opens the bucket at url.
// Supports: mem://, file:///path, s3://bucket, gs://bucket, azblob://container
func OpenBlobObjectStore(ctx context.Context, url string) (*BlobObjectStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open artifact bucket")
	}
	return NewBlobObjectStore(bucket), nil
}

// Put writes object under name, replacing any previous object.
func (s *BlobObjectStore) Put(ctx context.Context, name string, object *artifactDomain.Object) error {
	opts := &blob.WriterOptions{
		ContentType: ciphertextContentType,
		Metadata:    object.Metadata,
	}
	if err := s.bucket.WriteAll(ctx, name, object.Data, opts); err != nil {
		return apperrors.Wrap(err, "failed to write artifact object")
	}
	return nil
}

// Get reads the object stored under name. A blob.Reader carries no user
// metadata, so the attributes come from a separate call. The reader's size and
// modification time must match those attributes; otherwise the object was
// replaced in between and the read starts over.
func (s *BlobObjectStore) Get(ctx context.Context, name string) (*artifactDomain.Object, error) {
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		object, err := s.read(ctx, name)
		if !errors.Is(err, errObjectReplaced) {
			return object, err
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrConflict, "artifact object kept changing while being read")
}

func (s *BlobObjectStore) read(ctx context.Context, name string) (*artifactDomain.Object, error) {
	attrs, err := s.bucket.Attributes(ctx, name)
	if err != nil {
		return nil, s.mapError(err, "failed to read artifact attributes")
	}

	reader, err := s.bucket.NewReader(ctx, name, nil)
	if err != nil {
		return nil, s.mapError(err, "failed to read artifact object")
	}
	defer func() {
		_ = reader.Close()
	}()

	if reader.Size() != attrs.Size || !reader.ModTime().Equal(attrs.ModTime) {
		return nil, errObjectReplaced
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, s.mapError(err, "failed to read artifact object")
	}

	metadata := make(map[string]string, len(attrs.Metadata))
	for k, v := range attrs.Metadata {
		metadata[strings.ToLower(k)] = v
	}

	return &artifactDomain.Object{Data: data, Metadata: metadata}, nil
}

// Exists reports whether an object is stored under name.
func (s *BlobObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, name)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check artifact object")
	}
	return ok, nil
}

// Delete removes the object stored under name.
func (s *BlobObjectStore) Delete(ctx context.Context, name string) error {
	if err := s.bucket.Delete(ctx, name); err != nil {
		return s.mapError(err, "failed to delete artifact object")
	}
	return nil
}

// Close releases the bucket.
func (s *BlobObjectStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobObjectStore) mapError(err error, message string) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return artifactDomain.ErrArtifactNotFound
	}
	return apperrors.Wrap(err, message)
}
