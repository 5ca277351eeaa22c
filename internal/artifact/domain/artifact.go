package domain

import (
	"encoding/hex"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HashLength is the length of a hex-encoded SHA-256 content hash.
const HashLength = 64

// StoredArtifact describes an uploaded file at rest. It is stored under
// ContentHash + ContentType.Extension, so identical bytes always land on the
// same name.
type StoredArtifact struct {
	ContentHash string
	ContentType ContentType
	OwnerID     uuid.UUID
	Size        int64
	StoredAt    time.Time
}

// Name returns the storage name of the artifact.
func (a *StoredArtifact) Name() string {
	return a.ContentHash + a.ContentType.Extension
}

// RetrievedArtifact is the decrypted content of a stored artifact.
type RetrievedArtifact struct {
	Name        string
	ContentHash string
	ContentType ContentType
	Data        []byte
}

// ParseName splits a storage name into hash and allow-listed content type.
// Anything that is not exactly 64 lowercase hex characters followed by an
// allow-listed extension is rejected, which also rules out path traversal.
func ParseName(name string) (string, ContentType, error) {
	ext := path.Ext(name)
	hash := strings.TrimSuffix(name, ext)

	if len(hash) != HashLength || strings.ToLower(hash) != hash {
		return "", ContentType{}, ErrInvalidName
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return "", ContentType{}, ErrInvalidName
	}

	ct, ok := ContentTypeByExtension(ext)
	if !ok {
		return "", ContentType{}, ErrInvalidName
	}
	return hash, ct, nil
}

// Object is what the backing object store holds for one artifact: the
// ciphertext body plus string metadata (lowercase keys) carrying the rest of
// the envelope.
type Object struct {
	Data     []byte
	Metadata map[string]string
}
