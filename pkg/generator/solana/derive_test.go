package solana

import (
	"testing"

	btcbase58 "github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amr-9/SeedHunter/pkg/generator/seed"
)

var (
	testBase  = MustParsePubkey("3tJrAXnjofAw8oskbMaSo9oMAYuzdBgVbW3TvQLdMEBd")
	testOwner = MustParsePubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

func TestDeriveAddressKnownVectors(t *testing.T) {
	tests := []struct {
		seed string
		want string
	}{
		{seed: "AAAAAAAAAAAAAAAA", want: "7WXMo4Jt9bDc7VUdEjb1U2rdJ1bEQqktwBdHqye3BbVx"},
		{seed: "abcDEF0123456789", want: "DGqQaV9uEW2rdvGxUq9NDAGtbDM83x1K1sGzr5oD4bru"},
		{seed: "ZZZZZZZZZZZZZZZZ", want: "6JdiHCZr4ssJoBTUd6cWfFX6ozoEN4coWYas9x1KWnTV"},
	}

	for _, tt := range tests {
		t.Run(tt.seed, func(t *testing.T) {
			s, err := seed.Parse(tt.seed)
			require.NoError(t, err)

			assert.Equal(t, tt.want, DeriveAddress(testBase, s[:], testOwner))
			assert.Equal(t, tt.want, NewDeriver(testBase, testOwner).Derive(&s))
		})
	}
}

func TestDeriveAddressDeterministic(t *testing.T) {
	src := seed.NewAlphanumeric()
	d := NewDeriver(testBase, testOwner)

	var s seed.Seed
	for i := 0; i < 200; i++ {
		src.Fill(&s)
		first := d.Derive(&s)
		assert.Equal(t, first, d.Derive(&s))
		assert.Equal(t, first, DeriveAddress(testBase, s[:], testOwner))
	}
}

func TestDeriveAddressInputOrder(t *testing.T) {
	s, err := seed.Parse("AAAAAAAAAAAAAAAA")
	require.NoError(t, err)

	// swapping base and owner must change the address
	assert.NotEqual(t,
		DeriveAddress(testBase, s[:], testOwner),
		DeriveAddress(testOwner, s[:], testBase))
}

func TestDeriveAddressEncoding(t *testing.T) {
	src := seed.NewAlphanumeric()
	d := NewDeriver(testBase, testOwner)

	var s seed.Seed
	for i := 0; i < 500; i++ {
		src.Fill(&s)
		addr := d.Derive(&s)
		sum := DeriveAddressBytes(testBase, s[:], testOwner)

		assert.Equal(t, btcbase58.Encode(sum[:]), addr)
		assert.GreaterOrEqual(t, len(addr), 32)
		assert.LessOrEqual(t, len(addr), 44)
		assert.True(t, IsValidBase58(addr), "address %q outside alphabet", addr)
	}
}

func BenchmarkDeriver(b *testing.B) {
	src := seed.NewAlphanumeric()
	d := NewDeriver(testBase, testOwner)

	var s seed.Seed
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		src.Fill(&s)
		_ = d.Derive(&s)
	}
}
