// Package hashgen derives short codes from URLs.
// The same input always yields the same code for a given length, so codes are
// reproducible within a deployment. Generators are safe for concurrent use.
package hashgen

import (
	"github.com/cespare/xxhash/v2"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 7
	MinLength     = 4
	MaxLength     = 32

	// digitsPerBlock base62 digits fit in one 64-bit hash (62^10 < 2^64).
	digitsPerBlock = 10
)

// Generator turns an arbitrary string into a short code.
type Generator interface {
	Hash(input string) string
}

type xxGenerator struct {
	length int
}

// New returns an xxhash-backed generator producing codes of the given length.
// Lengths outside [MinLength, MaxLength] fall back to DefaultLength.
func New(length int) Generator {
	if length < MinLength || length > MaxLength {
		length = DefaultLength
	}
	return &xxGenerator{length: length}
}

// Hash encodes xxhash64 digests of input as base62. Codes longer than one
// block are extended with digests of input suffixed by the block number.
func (g *xxGenerator) Hash(input string) string {
	out := make([]byte, 0, g.length)

	for block := 0; len(out) < g.length; block++ {
		d := xxhash.New()
		_, _ = d.WriteString(input)
		if block > 0 {
			_, _ = d.Write([]byte{0, byte(block)})
		}
		out = appendBase62(out, d.Sum64(), g.length-len(out))
	}

	return string(out)
}

func appendBase62(dst []byte, v uint64, n int) []byte {
	if n > digitsPerBlock {
		n = digitsPerBlock
	}
	for range n {
		dst = append(dst, base62Chars[v%62])
		v /= 62
	}
	return dst
}

// Func adapts a plain function to Generator.
type Func func(input string) string

func (f Func) Hash(input string) string { return f(input) }

// IsValid reports whether code could have been produced by a Generator:
// non-empty, at most MaxLength bytes, base62 only.
func IsValid(code string) bool {
	if code == "" || len(code) > MaxLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
