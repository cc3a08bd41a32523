// Package seed produces the per-attempt entropy mixed into a derived address.
//
// Seeds only need to be uniformly distributed and uncorrelated between workers;
// they are not secrets. Each worker owns its own Source so the hot loop never
// synchronizes on a shared generator.
package seed

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20"
)

// Size is the length of a seed in bytes.
const Size = 16

// Alphabet is the symbol set seed bytes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// acceptBelow is the largest multiple of len(Alphabet) that fits in a byte.
// Keystream bytes at or above it are discarded so every symbol is equally likely.
const acceptBelow = 256 - 256%len(Alphabet)

// rekeyBlocks bounds the ChaCha20 block counter well below its 2^32 limit.
const rekeyBlocks = 1 << 30

// Seed is one unit of search entropy. The raw bytes are the canonical value.
type Seed [Size]byte

// String renders the seed as text. Seed bytes are always alphanumeric ASCII,
// so the conversion never loses or alters a byte.
func (s Seed) String() string {
	return string(s[:])
}

// Bytes returns a copy of the raw seed bytes.
func (s Seed) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, s[:])
	return b
}

// Parse converts a 16-character alphanumeric string back into a Seed.
func Parse(text string) (Seed, error) {
	var s Seed
	if len(text) != Size {
		return s, fmt.Errorf("seed must be %d characters, got %d", Size, len(text))
	}
	for i := 0; i < len(text); i++ {
		if strings.IndexByte(Alphabet, text[i]) < 0 {
			return s, fmt.Errorf("invalid seed character %q at position %d", text[i], i)
		}
	}
	copy(s[:], text)
	return s, nil
}

// Source fills seeds. A Source belongs to one worker and is not safe for
// concurrent use.
type Source interface {
	Fill(s *Seed)
}

// Factory builds the Source used by the given worker.
type Factory func(worker int) Source

// DefaultFactory gives every worker its own independently keyed source.
func DefaultFactory(int) Source {
	return NewAlphanumeric()
}

// Alphanumeric draws seeds from a ChaCha20 keystream keyed once from the OS
// entropy source.
type Alphanumeric struct {
	cipher *chacha20.Cipher
	key    [chacha20.KeySize]byte
	nonce  [chacha20.NonceSize]byte
	buf    [512]byte
	pos    int
	blocks uint64
}

// NewAlphanumeric returns a freshly keyed source.
func NewAlphanumeric() *Alphanumeric {
	a := &Alphanumeric{}
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(a.key[:])
	a.rekey()
	a.refill()
	return a
}

// Fill writes Size symbols from Alphabet into s.
func (a *Alphanumeric) Fill(s *Seed) {
	for i := 0; i < Size; {
		if a.pos == len(a.buf) {
			a.refill()
		}
		b := int(a.buf[a.pos])
		a.pos++
		if b >= acceptBelow {
			continue
		}
		s[i] = Alphabet[b%len(Alphabet)]
		i++
	}
}

func (a *Alphanumeric) refill() {
	if a.blocks >= rekeyBlocks {
		a.rekey()
	}
	clear(a.buf[:])
	a.cipher.XORKeyStream(a.buf[:], a.buf[:])
	a.blocks += uint64(len(a.buf) / 64)
	a.pos = 0
}

// rekey moves to the next nonce so the block counter never wraps.
func (a *Alphanumeric) rekey() {
	n := binary.LittleEndian.Uint64(a.nonce[4:])
	binary.LittleEndian.PutUint64(a.nonce[4:], n+1)
	c, err := chacha20.NewUnauthenticatedCipher(a.key[:], a.nonce[:])
	if err != nil {
		// key and nonce are fixed-size arrays
		panic(err)
	}
	a.cipher = c
	a.blocks = 0
}

// Sequence replays a fixed list of seeds in order, wrapping around at the end.
// It stands in for a random source when a search must be reproducible.
type Sequence struct {
	seeds []Seed
	next  int
}

// NewSequence returns a Sequence over seeds. It panics if seeds is empty.
func NewSequence(seeds ...Seed) *Sequence {
	if len(seeds) == 0 {
		panic("seed: empty sequence")
	}
	return &Sequence{seeds: append([]Seed(nil), seeds...)}
}

// Fill copies the next scripted seed into s.
func (q *Sequence) Fill(s *Seed) {
	*s = q.seeds[q.next]
	q.next = (q.next + 1) % len(q.seeds)
}
