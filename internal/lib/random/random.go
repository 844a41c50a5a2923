package random

import (
	"math/rand"
)

const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789"

// NewRandomString generates a random string of the given size. Safe for
// concurrent use.
func NewRandomString(size int) string {
	b := make([]byte, size)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}

	return string(b)
}
