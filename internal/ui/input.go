package ui

import (
	"strings"

	"github.com/Amr-9/SeedHunter/pkg/generator/solana"
)

// Target is the pattern entered at the prompt.
type Target struct {
	Prefix          string
	Suffix          string
	CaseInsensitive bool
}

// PromptTarget asks for a prefix, a suffix, and case sensitivity. Entries with
// characters outside the Base58 alphabet are reported and dropped.
func (c *Console) PromptTarget() Target {
	c.printf("    %s🎯 TARGET PATTERN%s\n", ColorPurple+ColorBold, ColorReset)

	var t Target
	t.Prefix = c.promptBase58("Prefix", "(...)")
	t.Suffix = c.promptBase58("Suffix", "(...xxx)")

	c.printf("    %sIgnore case?%s [y/N]: ", ColorCyan, ColorReset)
	answer := strings.ToLower(c.readLine())
	t.CaseInsensitive = answer == "y" || answer == "yes"

	return t
}

func (c *Console) promptBase58(label, hint string) string {
	c.printf("    %s%s%s %s: ", ColorCyan, label, ColorReset, hint)
	value := c.readLine()

	if value != "" && !solana.IsValidBase58(value) {
		invalid := solana.InvalidBase58Chars(value)
		c.printf("    %s⚠ Invalid Base58 character(s): %s%s\n", ColorRed, string(invalid), ColorReset)
		c.printf("    %s  (Not allowed: 0, O, I, l)%s\n", ColorDim, ColorReset)
		return ""
	}
	return value
}

// AskToContinue prompts user to continue or exit
func (c *Console) AskToContinue() bool {
	c.printf("\n    %s[Enter]%s Search again  │  %s[Q]%s Exit\n", ColorGreen, ColorReset, ColorRed, ColorReset)
	c.printf("    %s→%s ", ColorCyan, ColorReset)
	input := strings.ToLower(c.readLine())
	return input != "q" && input != "quit" && input != "exit"
}

// readLine returns the next trimmed line; EOF yields an empty answer.
func (c *Console) readLine() string {
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}
