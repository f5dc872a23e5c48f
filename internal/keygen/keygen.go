// Package keygen derives sharded, random object-store keys for new assets.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// keyBytes is the amount of entropy per key (128 bits).
const keyBytes = 16

// Generator produces keys of the form "a/b/ab....ext" from a random source.
type Generator struct {
	rand io.Reader
}

// New creates a Generator reading from src. A nil src uses crypto/rand.
func New(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{rand: src}
}

// Generate returns a fresh key with the given extension. The first two hex
// characters are used individually as a two-level shard prefix.
func (g *Generator) Generate(ext string) (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	s := hex.EncodeToString(buf)
	return fmt.Sprintf("%c/%c/%s.%s", s[0], s[1], s, ext), nil
}

var defaultGenerator = New(nil)

// Generate returns a key using crypto/rand.
func Generate(ext string) (string, error) {
	return defaultGenerator.Generate(ext)
}
