// Package ident derives content-addressed document IDs and sortable
// ranking keys.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ContentIDLength is the length of a ContentID in hex characters.
const ContentIDLength = 20

// ContentID returns the first 10 bytes of SHA-256(seed) as lowercase hex.
// Writing the same content twice lands on the same document.
func ContentID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:ContentIDLength/2])
}

// Ranked is implemented by categories with a priority rank; 0 is the most
// important.
type Ranked interface {
	Rank() int
}

const (
	maxRank = 999
	maxUnix = 9_999_999_999
)

// ComputeScoring builds a fixed-width key "BB_RRR_TTTTTTTTTT" whose
// descending string order is: manual entries first, then by category
// priority, then most recent.
func ComputeScoring(category Ranked, createdAt time.Time, manual bool) string {
	boost := 0
	if manual {
		boost = 1
	}
	rank := 0
	if category != nil {
		rank = min(max(category.Rank(), 0), maxRank)
	}
	unix := min(max(createdAt.Unix(), 0), maxUnix)
	return fmt.Sprintf("%02d_%03d_%010d", boost, maxRank-rank, unix)
}
