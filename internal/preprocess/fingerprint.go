package preprocess

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the hex SHA-256 of cleaned change text. It is only used to
// tell whether the visible change moved since the last cycle.
type Fingerprint string

// Compute hashes cleaned text.
func Compute(cleaned string) Fingerprint {
	sum := sha256.Sum256([]byte(cleaned))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

func (f Fingerprint) String() string {
	return string(f)
}
