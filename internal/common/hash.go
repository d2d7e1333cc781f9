package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentHash computes the stable digest of a posting's canonicalized text.
// The digest pivots change detection: identical hash means the posting has
// not changed and must not be re-classified.
func ContentHash(title, rawText string) string {
	canonical := strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(rawText))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// DedupKey computes the cross-source deduplication key for a posting.
func DedupKey(company, title, location string) string {
	canonical := strings.ToLower(strings.TrimSpace(company)) + "|" +
		strings.ToLower(strings.TrimSpace(title)) + "|" +
		strings.ToLower(strings.TrimSpace(location))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
