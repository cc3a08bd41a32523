package solana

import (
	"strings"
)

// Base58 alphabet (Bitcoin/Solana style - excludes 0, O, I, l)
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Criteria is a validated vanity pattern. It is built once per search and
// read concurrently by every worker.
type Criteria struct {
	Prefix          string // normalized; meaningful only when HasPrefix
	Suffix          string // normalized; meaningful only when HasSuffix
	HasPrefix       bool
	HasSuffix       bool
	CaseInsensitive bool
}

// NewCriteria validates prefix and suffix. A target that is empty or contains
// a non-Base58 character imposes no constraint.
func NewCriteria(prefix, suffix string, caseInsensitive bool) Criteria {
	c := Criteria{CaseInsensitive: caseInsensitive}
	c.Prefix, c.HasPrefix = ValidateTarget(prefix, caseInsensitive)
	c.Suffix, c.HasSuffix = ValidateTarget(suffix, caseInsensitive)
	return c
}

// ValidateTarget returns the normalized target and true, or "" and false when
// the target is empty or uses a character outside the Base58 alphabet.
// Rejection is silent: callers that need strict validation should check
// IsValidBase58 first.
func ValidateTarget(target string, caseInsensitive bool) (string, bool) {
	if target == "" || !IsValidBase58(target) {
		return "", false
	}
	if caseInsensitive {
		return Lower(target), true
	}
	return target, true
}

// Matches checks if an address satisfies the prefix and suffix constraints.
func (c *Criteria) Matches(address string) bool {
	if c.CaseInsensitive {
		address = Lower(address)
	}

	// Check prefix
	if c.HasPrefix && !strings.HasPrefix(address, c.Prefix) {
		return false
	}

	// Check suffix
	if c.HasSuffix && !strings.HasSuffix(address, c.Suffix) {
		return false
	}

	return true
}

// Unconstrained reports whether every address matches.
func (c *Criteria) Unconstrained() bool {
	return !c.HasPrefix && !c.HasSuffix
}

// Difficulty estimates the expected number of attempts to find a match.
// Letters matched case-insensitively that exist in both cases count as two
// symbols out of 58.
func (c *Criteria) Difficulty() uint64 {
	const maxDifficulty = ^uint64(0)

	d := 1.0
	for _, pattern := range []string{c.Prefix, c.Suffix} {
		for i := 0; i < len(pattern); i++ {
			if c.CaseInsensitive && hasBothCases(pattern[i]) {
				d *= 29
			} else {
				d *= 58
			}
		}
	}
	if d >= float64(maxDifficulty) {
		return maxDifficulty
	}
	return uint64(d)
}

// Lower lowercases ASCII letters only. Other bytes pass through unchanged.
func Lower(s string) string {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			return lowerFrom(s, i)
		}
	}
	return s
}

func lowerFrom(s string, i int) string {
	b := []byte(s)
	for ; i < len(b); i++ {
		if 'A' <= b[i] && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// hasBothCases reports whether the lowercase letter b appears in the Base58
// alphabet in both upper and lower case.
func hasBothCases(b byte) bool {
	if b < 'a' || b > 'z' {
		return false
	}
	upper := b - ('a' - 'A')
	return strings.IndexByte(base58Alphabet, b) >= 0 && strings.IndexByte(base58Alphabet, upper) >= 0
}

// IsValidBase58 checks if a string contains only valid Base58 characters.
// Base58 excludes: 0 (zero), O (uppercase o), I (uppercase i), l (lowercase L)
func IsValidBase58(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune(base58Alphabet, c) {
			return false
		}
	}
	return true
}

// InvalidBase58Chars returns any invalid Base58 characters in the input.
// Useful for providing helpful error messages to users.
func InvalidBase58Chars(s string) []rune {
	var invalid []rune
	for _, c := range s {
		if !strings.ContainsRune(base58Alphabet, c) {
			invalid = append(invalid, c)
		}
	}
	return invalid
}
