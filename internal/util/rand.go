package util

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strconv"
	"time"
)

// RandomString returns n random bytes, URL-safe base64 encoded.
func RandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

const idSuffixLength = 11

var idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a record identifier: the base-36 millisecond timestamp
// followed by a random base-36 suffix. Uniqueness is best-effort.
func NewID() string {
	return newIDAt(time.Now())
}

func newIDAt(t time.Time) string {
	prefix := strconv.FormatInt(t.UnixMilli(), 36)

	suffix := make([]byte, idSuffixLength)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		suffix[i] = idAlphabet[n.Int64()]
	}

	return prefix + string(suffix)
}
