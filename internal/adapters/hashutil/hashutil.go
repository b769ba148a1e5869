// Package hashutil streams file content through SHA-256 in fixed-size
// chunks so large assets never need to be loaded in full.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/dronedb/ddb/internal/domain"
)

// ChunkSize is the recommended read buffer size from step 4.
const ChunkSize = 64 * 1024

// Hasher streams SHA-256 digests of files, reusing a single scratch buffer
// across calls.
type Hasher struct {
	buf []byte
}

// NewHasher builds a Hasher with the recommended chunk size.
func NewHasher() *Hasher {
	return &Hasher{buf: make([]byte, ChunkSize)}
}

// HashFile returns the lowercase hex SHA-256 digest of absPath's content.
func (h *Hasher) HashFile(absPath string) (string, error) {
	f, err := os.Open(absPath) //#nosec G304 -- absPath is resolved from the working tree root
	if err != nil {
		return "", &domain.FilesystemError{Op: "open", Path: absPath, Err: err}
	}
	defer func() { _ = f.Close() }()

	sum := sha256.New()
	if _, err := io.CopyBuffer(sum, f, h.buf); err != nil {
		return "", &domain.FilesystemError{Op: "read", Path: absPath, Err: err}
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}
