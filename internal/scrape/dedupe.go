package scrape

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"jobfeed-engine/internal/domain"
)

// IdentityDigest is the canonical identity of a posting: sha256 over the
// lower-cased trimmed title, the company ("" if absent) and the full URL.
func IdentityDigest(j domain.JobPosting) string {
	key := strings.ToLower(strings.TrimSpace(j.Title)) + j.CompanyName() + j.URL
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Dedupe keeps the first posting of every identity, preserving input order.
func Dedupe(in []domain.JobPosting) []domain.JobPosting {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.JobPosting, 0, len(in))
	for _, j := range in {
		h := IdentityDigest(j)
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, j)
	}
	return out
}
