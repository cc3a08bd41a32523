package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name            string
		target          string
		caseInsensitive bool
		want            string
		wantOK          bool
	}{
		{name: "empty", target: "", wantOK: false},
		{name: "zero is outside alphabet", target: "0", wantOK: false},
		{name: "capital O", target: "abO", wantOK: false},
		{name: "capital I", target: "I", wantOK: false},
		{name: "lowercase L", target: "l", wantOK: false},
		{name: "valid kept as is", target: "AbC", want: "AbC", wantOK: true},
		{name: "valid lowercased", target: "AbC", caseInsensitive: true, want: "abc", wantOK: true},
		{name: "digits untouched", target: "9Z9", caseInsensitive: true, want: "9z9", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidateTarget(tt.target, tt.caseInsensitive)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCriteriaMatches(t *testing.T) {
	const addr = "7WXMo4Jt9bDc7VUdEjb1U2rdJ1bEQqktwBdHqye3BbVx"

	tests := []struct {
		name            string
		prefix, suffix  string
		caseInsensitive bool
		want            bool
	}{
		{name: "unconstrained", want: true},
		{name: "prefix", prefix: "7WX", want: true},
		{name: "suffix", suffix: "BbVx", want: true},
		{name: "prefix and suffix", prefix: "7WXM", suffix: "Vx", want: true},
		{name: "prefix mismatch", prefix: "7wx", want: false},
		{name: "prefix case-insensitive", prefix: "7wx", caseInsensitive: true, want: true},
		{name: "suffix case-insensitive", suffix: "BBVX", caseInsensitive: true, want: true},
		{name: "suffix mismatch", suffix: "Bbvx", want: false},
		{name: "one side fails", prefix: "7WX", suffix: "zzz", want: false},
		{name: "invalid prefix is ignored", prefix: "0000", suffix: "Vx", want: true},
		{name: "whole address", prefix: addr, suffix: addr, want: true},
		{name: "longer than address", prefix: addr + "1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCriteria(tt.prefix, tt.suffix, tt.caseInsensitive)
			assert.Equal(t, tt.want, c.Matches(addr))
		})
	}
}

func TestCriteriaUnconstrained(t *testing.T) {
	c := NewCriteria("0", "", false)
	assert.True(t, c.Unconstrained())
	assert.False(t, c.HasPrefix)

	c = NewCriteria("", "abc", false)
	assert.False(t, c.Unconstrained())
}

func TestCriteriaDifficulty(t *testing.T) {
	tests := []struct {
		name            string
		prefix, suffix  string
		caseInsensitive bool
		want            uint64
	}{
		{name: "none", want: 1},
		{name: "one char", prefix: "A", want: 58},
		{name: "prefix and suffix", prefix: "A", suffix: "b", want: 58 * 58},
		{name: "case-insensitive letter", prefix: "A", caseInsensitive: true, want: 29},
		{name: "case-insensitive digit", prefix: "9", caseInsensitive: true, want: 58},
		{name: "case-insensitive single-case letter", prefix: "L", caseInsensitive: true, want: 58},
		{name: "saturates", prefix: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", want: ^uint64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCriteria(tt.prefix, tt.suffix, tt.caseInsensitive)
			assert.Equal(t, tt.want, c.Difficulty())
		})
	}
}

func TestLower(t *testing.T) {
	assert.Equal(t, "abc123xyz", Lower("AbC123XyZ"))
	assert.Equal(t, "already", Lower("already"))
	assert.Equal(t, "", Lower(""))
}

func TestInvalidBase58Chars(t *testing.T) {
	assert.Equal(t, []rune{'0', 'O', 'I', 'l'}, InvalidBase58Chars("a0bOcIdl"))
	assert.Nil(t, InvalidBase58Chars("abc"))
	assert.True(t, IsValidBase58("ABCxyz123"))
	assert.False(t, IsValidBase58("hello"))
}
