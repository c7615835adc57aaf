// Package chart draws category bar charts on a text terminal.
package chart

import (
	"io"
	"os"
	"strings"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

const (
	DefaultTitle = "Monthly Expenses"
	XLabel       = "Category"
	YLabel       = "Amount ($)"

	defaultWidth  = 80
	minWidth      = 20
	maxLabelWidth = 24

	positiveGlyph = "█"
	negativeGlyph = "░"
)

// Renderer displays a bar chart of per-category amounts.
type Renderer interface {
	Render(title string, bars []core.CategoryAmount) error
}

// Terminal renders charts as text. A zero width means the terminal width,
// or 80 columns when out is not a terminal.
type Terminal struct {
	out   io.Writer
	width int
}

var _ Renderer = (*Terminal)(nil)

func NewTerminal(out io.Writer, width int) *Terminal {
	return &Terminal{out: out, width: width}
}

// Width returns the number of columns the chart may use.
func (t *Terminal) Width() int {
	if t.width > 0 {
		return t.width
	}
	if f, ok := t.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w >= minWidth {
			return w
		}
	}
	return defaultWidth
}

func (t *Terminal) Render(title string, bars []core.CategoryAmount) error {
	_, err := io.WriteString(t.out, Draw(title, bars, t.Width()))
	return err
}

// Draw lays out one horizontal bar per category. Bar length is proportional
// to the absolute amount; negative amounts use a lighter glyph.
func Draw(title string, bars []core.CategoryAmount, width int) string {
	if width < minWidth {
		width = minWidth
	}

	labelW := len([]rune(XLabel))
	amountW := 0
	maxAbs := decimal.Zero
	labels := make([]string, len(bars))
	amounts := make([]string, len(bars))
	for i, b := range bars {
		labels[i] = truncate(b.Name, maxLabelWidth)
		if n := len([]rune(labels[i])); n > labelW {
			labelW = n
		}
		amounts[i] = core.FormatAmount(b.Amount)
		if n := len(amounts[i]); n > amountW {
			amountW = n
		}
		if abs := b.Amount.Abs(); abs.GreaterThan(maxAbs) {
			maxAbs = abs
		}
	}

	barMax := width - labelW - len(" | ") - 1 - amountW
	if barMax < 1 {
		barMax = 1
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(pad(XLabel, labelW) + " | " + YLabel + "\n")
	for i, b := range bars {
		glyph := positiveGlyph
		if b.Amount.IsNegative() {
			glyph = negativeGlyph
		}
		n := barLength(b.Amount.Abs(), maxAbs, barMax)
		sb.WriteString(pad(labels[i], labelW) + " | " + strings.Repeat(glyph, n) + " " + amounts[i] + "\n")
	}
	return sb.String()
}

func barLength(abs, maxAbs decimal.Decimal, barMax int) int {
	if maxAbs.IsZero() || abs.IsZero() {
		return 0
	}
	n := int(abs.Div(maxAbs).Mul(decimal.NewFromInt(int64(barMax))).Round(0).IntPart())
	if n < 1 {
		n = 1
	}
	return n
}

func pad(s string, w int) string {
	if n := len([]rune(s)); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
