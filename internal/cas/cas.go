// Package cas provides BLAKE3 content addressing for snapshot artifacts.
//
// Snapshot and preview files are named after a prefix of their BLAKE3-256
// digest, so committing an unchanged document twice reuses one artifact.
// The full digest is kept in the artifact index and re-checked on restore.
package cas

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"lukechampine.com/blake3"
)

// NameLen is the number of hex characters of a digest used in artifact names.
const NameLen = 16

// Hash represents a BLAKE3-256 hash value.
type Hash [32]byte

// String returns the hexadecimal representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first NameLen hex characters of the hash.
func (h Hash) Short() string {
	return h.String()[:NameLen]
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a 64 character hex digest.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("invalid hash length %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// SumB3 computes the BLAKE3 hash of the given data.
func SumB3(data []byte) Hash {
	return blake3.Sum256(data)
}

// SumReader streams r through BLAKE3.
func SumReader(r io.Reader) (Hash, error) {
	var h Hash
	hasher := blake3.New(32, nil)
	if _, err := io.Copy(hasher, r); err != nil {
		return h, fmt.Errorf("hash stream: %w", err)
	}
	copy(h[:], hasher.Sum(nil))
	return h, nil
}

// SumFile hashes the file at path.
func SumFile(path string) (Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hash{}, err
	}
	defer f.Close()
	return SumReader(f)
}

// ArtifactName builds the on-disk name for an artifact, e.g. snap_0123abcd4567ef89.kra.
func ArtifactName(prefix string, h Hash, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, h.Short(), ext)
}
