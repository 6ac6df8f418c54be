package ingest

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/goccy/go-json"
)

// Checksum returns the deterministic content hash used for idempotent
// ingestion. Document has no map-typed fields, so JSON marshaling already
// produces a stable byte sequence across calls; a plain SHA-256 over that
// sequence is enough to dedup identical documents.
func Checksum(doc Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
