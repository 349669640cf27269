package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainStructure = "t3ns/structure/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StructureDigest fingerprints the structural part of a state (topology and
// sector tables) from its canonical description. Two states with the same
// digest address their blocks identically.
func StructureDigest(structure map[string]any) (string, error) {
	canonical, err := MarshalCanonical(structure)
	if err != nil {
		return "", fmt.Errorf("StructureDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStructure, canonical), nil
}
