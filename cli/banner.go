// Package cli holds the terminal helpers fsmctl uses: boxed banners and
// interactive prompts.
package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/width"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	ellipsis       = "…"

	bannerPadding = 2
	halfDivisor   = 2
)

// Alignment of banner lines.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// DefaultTerminalWidth is used when the terminal size cannot be read.
const DefaultTerminalWidth = 80

var suppressBanner = sync.OnceValue(func() bool { //nolint:gochecknoglobals
	var cfg struct {
		NoBanner bool `env:"FSM_NO_BANNER" envDefault:"false"`
	}

	if err := env.Parse(&cfg); err != nil {
		return false
	}

	return cfg.NoBanner
})

// BannerAutoWidth draws s in a box as wide as the terminal.
func BannerAutoWidth(s string, a Alignment) string {
	if suppressBanner() {
		return s + "\n"
	}

	_, w, err := TerminalDimensions()
	if err != nil || w == 0 {
		w = DefaultTerminalWidth
	}

	return Banner(s, int(w), a) //nolint:gosec // Terminal width is bounded by screen size
}

// Banner draws each line of s inside a box width columns wide. Lines that do
// not fit are truncated with an ellipsis.
func Banner(s string, width int, a Alignment) string {
	if width <= bannerPadding {
		return ""
	}

	inner := width - bannerPadding
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	parts := make([]string, 0, len(lines)+2) //nolint:mnd
	parts = append(parts, boxTopLeft+strings.Repeat(boxTop, inner)+boxTopRight)

	for _, line := range lines {
		parts = append(parts, boxSide+pad(line, inner, a)+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n") + "\n"
}

// displayWidth counts terminal columns: East Asian wide runes take two,
// non-graphic runes none.
func displayWidth(s string) int {
	n := 0

	for _, r := range s {
		n += runeWidth(r)
	}

	return n
}

func runeWidth(r rune) int {
	if !unicode.IsGraphic(r) {
		return 0
	}

	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2 //nolint:mnd
	default:
		return 1
	}
}

// truncate cuts s so that it and a trailing ellipsis fit in cols columns.
func truncate(s string, cols int) (string, int) {
	var sb strings.Builder

	used := 0

	for _, r := range s {
		w := runeWidth(r)
		if used+w > cols-1 {
			break
		}

		sb.WriteRune(r)

		used += w
	}

	return sb.String() + ellipsis, used + 1
}

func pad(text string, cols int, a Alignment) string {
	length := displayWidth(text)
	if length > cols {
		text, length = truncate(text, cols)
	}

	diff := cols - length

	switch a {
	case AlignCenter:
		left := diff / halfDivisor

		return strings.Repeat(" ", left) + text + strings.Repeat(" ", diff-left)
	case AlignRight:
		return strings.Repeat(" ", diff) + text
	default:
		return text + strings.Repeat(" ", diff)
	}
}

func size() (string, error) {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return "", err
	}

	defer f.Close() //nolint:errcheck

	// Outputs: "rows columns"
	cmd := exec.Command("stty", "size")
	cmd.Stdin = f

	out, err := cmd.Output()

	return string(out), err
}

func parse(input string) (uint, uint, error) {
	parts := strings.Fields(input)
	if len(parts) != 2 { //nolint:mnd
		return 0, 0, fmt.Errorf("unexpected stty output %q", input)
	}

	rows, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	cols, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	return uint(rows), uint(cols), nil
}

// TerminalDimensions returns (rows, cols, err).
func TerminalDimensions() (uint, uint, error) {
	output, err := size()
	if err != nil {
		return 0, 0, err
	}

	return parse(output)
}
