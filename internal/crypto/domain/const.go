package domain

const (
	// KeySize is the size in bytes of every data key (AES-256).
	KeySize = 32

	// IVSize is the size in bytes of the per-operation initialization vector.
	// It matches the AES block size.
	IVSize = 16
)
