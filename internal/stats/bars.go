package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/boothdesk/internal/model"
)

type ansiColor struct {
	name string
	code string
}

const (
	minBarWidth         = 10
	barLabelWidth       = 4
	barFill             = "█"
	barEmpty            = "·"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// One color per alliance, canonical order.
var colorPalette = [model.AllianceCount]ansiColor{
	{name: "red", code: "\x1b[31m"},
	{name: "blue", code: "\x1b[34m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "magenta", code: "\x1b[35m"},
}

// RenderShareBars draws one horizontal bar per alliance sized by its share of
// all votes. Width 0 means the terminal width.
func RenderShareBars(w io.Writer, totals model.Totals, width int, forceColor bool) error {
	if width <= 0 {
		width = terminalWidth()
	}
	useColor := shouldUseColor(w, forceColor)
	grand := totals.Sum()
	for i, a := range model.Alliances {
		pct := Percent(totals[i], grand)
		suffix := fmt.Sprintf(" %6s%%", pct)
		barWidth := BarWidthFor(width, len(suffix))
		filled := barCells(totals[i], grand, barWidth)
		bar := strings.Repeat(barFill, filled)
		if useColor && filled > 0 {
			bar = colorPalette[i].code + bar + colorReset
		}
		line := fmt.Sprintf("%-*s%s%s%s", barLabelWidth, string(a), bar, strings.Repeat(barEmpty, barWidth-filled), suffix)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// BarWidthFor computes the bar width that fits within the total width after
// the label and the suffix.
func BarWidthFor(totalWidth, suffixWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	barWidth := totalWidth - barLabelWidth - suffixWidth
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	return barWidth
}

func barCells(votes, total int64, width int) int {
	if total <= 0 || votes <= 0 || width <= 0 {
		return 0
	}
	cells := int((votes*int64(width) + total/2) / total)
	if cells > width {
		cells = width
	}
	return cells
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
