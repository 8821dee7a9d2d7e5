package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// ShareCodeAlphabet excludes characters that are easy to confuse when read
// aloud or typed (I, L, O, 0, 1).
const ShareCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ShareCodeLength is the number of characters in a group share code.
const ShareCodeLength = 6

// MakeRandHexString generates size random bytes and returns them hex-encoded,
// so the resulting string is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeShareCode returns a random code of ShareCodeLength characters drawn
// from ShareCodeAlphabet.
func MakeShareCode() (string, error) {
	max := big.NewInt(int64(len(ShareCodeAlphabet)))
	out := make([]byte, ShareCodeLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = ShareCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}
