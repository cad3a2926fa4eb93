package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SectionID derives a stable identifier for a section body by hashing its
// whitespace-collapsed text, so repeated runs over identical content
// produce identical ids (spec.md §4.6, §9).
func SectionID(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(collapsed))
	return hex.EncodeToString(sum[:])
}
