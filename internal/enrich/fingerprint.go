package enrich

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 of a menu's raw text. Tag sets are
// keyed by (menu, model, fingerprint) so a rescrape that changes the text
// triggers re-enrichment while identical text never pays for a second
// model call.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
