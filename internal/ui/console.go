package ui

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Amr-9/SeedHunter/pkg/generator"
	"github.com/Amr-9/SeedHunter/pkg/generator/solana"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorPurple = "\033[35m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

// Console renders the interactive grind screens.
type Console struct {
	out io.Writer
	in  *bufio.Reader
}

// NewConsole creates a console reading answers from in and drawing to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{out: out, in: bufio.NewReader(in)}
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// ClearScreen clears the terminal
func (c *Console) ClearScreen() {
	c.printf("\033[H\033[2J")
}

// PrintWelcomeBanner shows the welcome screen
func (c *Console) PrintWelcomeBanner(version string) {
	c.printf("\n%s%s", ColorCyan, ColorBold)
	c.printf("  ╔══════════════════════════════════════════════════════════╗\n")
	c.printf("  ║   ◎  S E E D H U N T E R                                 ║\n")
	c.printf("  ╠══════════════════════════════════════════════════════════╣\n")
	c.printf("  ║%s   Solana create_with_seed vanity grinder %s• v%-10s%s║\n", ColorYellow, ColorDim, version, ColorCyan+ColorBold)
	c.printf("  ╚══════════════════════════════════════════════════════════╝\n")
	c.printf("%s\n", ColorReset)
}

// PrintSearchInfo displays the pattern being searched and its odds
func (c *Console) PrintSearchInfo(criteria solana.Criteria, workers int, backend string) {
	c.printf("\n    %s🚀 SEARCHING%s ", ColorGreen+ColorBold, ColorReset)
	c.printf("%s", PatternString(criteria))
	if criteria.CaseInsensitive {
		c.printf(" %s(case-insensitive)%s", ColorDim, ColorReset)
	}
	c.printf(" %s(1/%s)%s\n", ColorDim, FormatNumber(criteria.Difficulty()), ColorReset)
	c.printf("    %s%d %s workers%s\n\n", ColorDim, workers, backend, ColorReset)
}

// PatternString renders criteria as "abc...xyz".
func PatternString(criteria solana.Criteria) string {
	if criteria.Unconstrained() {
		return "<any address>"
	}
	var b strings.Builder
	if criteria.HasPrefix {
		b.WriteString(criteria.Prefix)
	}
	b.WriteString("...")
	if criteria.HasSuffix {
		b.WriteString(criteria.Suffix)
	}
	return b.String()
}

// ExpectedProgress maps attempts against difficulty onto [0,1), reaching 0.75
// at the expected number of attempts.
func ExpectedProgress(attempts, difficulty uint64) float64 {
	diff := float64(difficulty)
	if diff == 0 {
		diff = 1
	}
	return 1.0 - math.Pow(0.5, 2.0*float64(attempts)/diff)
}

// PrintProgress shows animated progress bar
func (c *Console) PrintProgress(stats generator.Stats, difficulty uint64, frame int) {
	spinners := []string{"◐", "◓", "◑", "◒"}
	spinner := spinners[frame%len(spinners)]

	barWidth := 40
	filled := int(ExpectedProgress(stats.Attempts, difficulty) * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", barWidth-filled)

	c.printf("\r    %s%s%s %s%s%s %s%s%s │ %s%s%s │ %s",
		ColorCyan, spinner, ColorReset,
		ColorDim, bar, ColorReset,
		ColorGreen+ColorBold, FormatHashRate(stats.HashRate), ColorReset,
		ColorYellow, FormatNumber(stats.Attempts), ColorReset,
		FormatDuration(time.Duration(stats.ElapsedSecs*float64(time.Second))))
}

// PrintSuccess shows the found address and the seed that derives it
func (c *Console) PrintSuccess(result *generator.Result, outputFile string) {
	c.printf("\n    %s%s╔══════════════════════════════════════════════════════════╗%s\n", ColorGreen, ColorBold, ColorReset)
	c.printf("    %s%s║               ✨ ADDRESS FOUND! ✨                       ║%s\n", ColorGreen, ColorBold, ColorReset)
	c.printf("    %s%s╚══════════════════════════════════════════════════════════╝%s\n\n", ColorGreen, ColorBold, ColorReset)

	c.printf("    %s◎ SOLANA ADDRESS%s\n\n", ColorCyan+ColorBold, ColorReset)
	c.printf("       %s%s%s%s\n\n", ColorGreen, ColorBold, result.Address, ColorReset)

	c.printf("    %s🌱 SEED%s\n", ColorPurple+ColorBold, ColorReset)
	c.printf("       %s%s%s\n\n", ColorYellow, result.SeedText(), ColorReset)

	c.printf("    %sbase%s   %s\n", ColorDim, ColorReset, result.Base)
	c.printf("    %sowner%s  %s\n\n", ColorDim, ColorReset, result.Owner)

	saved := outputFile
	if saved == "" {
		saved = "not saved"
	}
	c.printf("    %s⏱   %s%s   %s│   %s📊  %s%s   %s│   %s⚡  %s%s   %s│   %s💾  %s%s%s\n",
		ColorCyan, ColorReset+ColorBold, FormatDuration(result.Duration),
		ColorDim,
		ColorPurple, ColorReset+ColorBold, FormatNumber(result.Attempts),
		ColorDim,
		ColorGreen, ColorReset+ColorBold, FormatHashRate(float64(result.AttemptsPerSecond)),
		ColorDim,
		ColorYellow, ColorReset+ColorBold, saved,
		ColorReset)
}

// PrintError shows a failed search
func (c *Console) PrintError(err error) {
	c.printf("\n    %s✗ %v%s\n", ColorRed, err, ColorReset)
}

// ClearLine clears the current line
func (c *Console) ClearLine() {
	c.printf("\r%s\r", strings.Repeat(" ", 94))
}

// FormatHashRate formats hash rate nicely
func FormatHashRate(rate float64) string {
	if rate >= 1000000 {
		return fmt.Sprintf("%.1fM/s", rate/1000000)
	}
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK/s", rate/1000)
	}
	return fmt.Sprintf("%.0f/s", rate)
}

// FormatNumber adds commas to large numbers
func FormatNumber(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}
	result := make([]byte, 0, len(s)+(len(s)-1)/3)
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, s[i])
	}
	return string(result)
}

// FormatDuration formats duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}
