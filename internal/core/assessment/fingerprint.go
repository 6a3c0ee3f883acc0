package assessment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// Fingerprint hashes the canonical JSON (RFC 8785) form of an FNOL, so two
// records that differ only in key order or whitespace share a fingerprint.
func Fingerprint(fnol *domain.FNOL) (string, error) {
	raw, err := json.Marshal(fnol)
	if err != nil {
		return "", fmt.Errorf("marshal fnol: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize fnol: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// ReferenceFor returns the upstream claim id, or a stable reference derived
// from the fingerprint when none was supplied.
func ReferenceFor(fnol *domain.FNOL, fingerprint string) string {
	if id := strings.TrimSpace(fnol.ClaimID); id != "" {
		return id
	}
	if len(fingerprint) > 12 {
		fingerprint = fingerprint[:12]
	}
	return "CLM-" + strings.ToUpper(fingerprint)
}
