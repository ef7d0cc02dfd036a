// Package classical computes reference digests from standard hash
// functions for side-by-side comparison with the quantum-inspired
// pipeline. It reads the same input bytes but never feeds back into
// the pipeline.
package classical

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Reference holds the classical digests of one input, hex encoded.
type Reference struct {
	SHA256  string `json:"sha256"`
	SHA512  string `json:"sha512"`
	MD5     string `json:"md5"`
	BLAKE2b string `json:"blake2b"`
}

// Compute returns the full set of reference digests for the input.
// MD5 is included for the legacy comparison only.
func Compute(input []byte) Reference {
	s256 := sha256.Sum256(input)
	s512 := sha512.Sum512(input)
	m := md5.Sum(input)
	b2 := blake2b.Sum512(input)

	return Reference{
		SHA256:  hex.EncodeToString(s256[:]),
		SHA512:  hex.EncodeToString(s512[:]),
		MD5:     hex.EncodeToString(m[:]),
		BLAKE2b: hex.EncodeToString(b2[:]),
	}
}

// BLAKE2bKeyed computes a keyed BLAKE2b digest of the given size in
// bytes (1 to 64). An empty key yields the unkeyed variant.
func BLAKE2bKeyed(input, key []byte, size int) (string, error) {
	if size < 1 || size > blake2b.Size {
		return "", fmt.Errorf("blake2b digest size must be in [1, %d], got %d", blake2b.Size, size)
	}

	h, err := blake2b.New(size, key)
	if err != nil {
		return "", fmt.Errorf("failed to construct keyed blake2b: %w", err)
	}
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil)), nil
}
