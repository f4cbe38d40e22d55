// Package blobstore provides the content-addressed blob store the record
// stores reference documents through. Addresses are deterministic hashes of
// content, so a round-tripped blob always lands on the same address and a
// fetched blob can be re-verified against the address it was fetched by.
package blobstore

import (
	"crypto/sha256"
	"encoding/hex"
)

// Address computes the deterministic content address for a blob: the hex
// SHA-256 of its content.
func Address(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
