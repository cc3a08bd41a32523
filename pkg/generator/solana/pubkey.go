package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PubkeySize is the length of a Solana public key.
const PubkeySize = 32

// Pubkey is a 32-byte Solana account identifier. It is a plain value and is
// copied freely between workers.
type Pubkey [PubkeySize]byte

// ParsePubkey decodes a Base58 account identifier and checks it is exactly 32 bytes.
func ParsePubkey(s string) (Pubkey, error) {
	var pk Pubkey
	if s == "" {
		return pk, fmt.Errorf("empty pubkey")
	}
	if invalid := InvalidBase58Chars(s); len(invalid) > 0 {
		return pk, &InvalidBase58Error{Char: invalid[0]}
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode %q: %w", s, err)
	}
	if len(raw) != PubkeySize {
		return pk, fmt.Errorf("pubkey %q decodes to %d bytes, want %d", s, len(raw), PubkeySize)
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustParsePubkey is ParsePubkey for compile-time constants. It panics on error.
func MustParsePubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the Base58 form of the key.
func (pk Pubkey) String() string {
	return base58.Encode(pk[:])
}

// MarshalText implements encoding.TextMarshaler.
func (pk Pubkey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pk *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// InvalidBase58Error represents an invalid Base58 character error
type InvalidBase58Error struct {
	Char rune
}

func (e *InvalidBase58Error) Error() string {
	return "invalid Base58 character: " + string(e.Char)
}
