package solana

import (
	"github.com/Amr-9/SeedHunter/pkg/generator/seed"
	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
)

// Derivation input layout: base (32) + seed (16) + owner (32) = 80 bytes.
const (
	seedOffset  = PubkeySize
	ownerOffset = seedOffset + seed.Size
	inputLen    = ownerOffset + PubkeySize
)

// DeriveAddressBytes returns SHA-256(base || seed || owner), the raw address
// produced by Solana's create_with_seed for a seed of any length.
func DeriveAddressBytes(base Pubkey, seedBytes []byte, owner Pubkey) [32]byte {
	h := sha256.New()
	h.Write(base[:])
	h.Write(seedBytes)
	h.Write(owner[:])

	var out [32]byte
	h.Sum(out[:0])
	return out
}

// DeriveAddress returns the Base58 address for base, seed and owner.
// Same inputs always produce the same address.
func DeriveAddress(base Pubkey, seedBytes []byte, owner Pubkey) string {
	sum := DeriveAddressBytes(base, seedBytes, owner)
	return base58.Encode(sum[:])
}

// Deriver is the hot-path form of DeriveAddress for a fixed base and owner.
// Base and owner are laid into the input buffer once; each call only rewrites
// the seed bytes. A Deriver belongs to one worker.
type Deriver struct {
	input [inputLen]byte
}

// NewDeriver prepares a Deriver for base and owner.
func NewDeriver(base, owner Pubkey) *Deriver {
	d := &Deriver{}
	copy(d.input[:seedOffset], base[:])
	copy(d.input[ownerOffset:], owner[:])
	return d
}

// Derive returns the Base58 address for s.
func (d *Deriver) Derive(s *seed.Seed) string {
	copy(d.input[seedOffset:ownerOffset], s[:])
	sum := sha256.Sum256(d.input[:])
	return base58.Encode(sum[:])
}
