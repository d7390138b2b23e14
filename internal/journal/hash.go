package journal

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainPatch prefixes entry hashes. The version suffix leaves room for a
// different algorithm later.
const DomainPatch = "reclens/patch/v1"

// hashWithDomain returns hex(SHA-256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PatchHash is the content hash stored with an entry.
func PatchHash(patch []byte) string {
	return hashWithDomain(DomainPatch, patch)
}
