package credential

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	DefaultLength = 16
	MinLength     = 8
)

// GeneratePassword returns length characters of Alphabet drawn uniformly
// from r. A nil r means crypto/rand.Reader.
func GeneratePassword(r io.Reader, length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("password length %d below minimum %d", length, MinLength)
	}
	if r == nil {
		r = rand.Reader
	}
	max := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(r, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}
