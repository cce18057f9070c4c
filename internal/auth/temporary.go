package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
)

// TemporaryToken is a single-use token mailed to the user. Only Hashed is
// persisted.
type TemporaryToken struct {
	Unhashed string
	Hashed   string
	Expiry   time.Time
}

func NewTemporaryToken(now time.Time, ttl time.Duration) (TemporaryToken, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return TemporaryToken{}, errors.Wrap(err, "read token bytes")
	}
	raw := hex.EncodeToString(buf)
	return TemporaryToken{Unhashed: raw, Hashed: HashToken(raw), Expiry: now.Add(ttl)}, nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
