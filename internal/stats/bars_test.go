package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/boothdesk/internal/model"
)

func TestRenderShareBarsWidths(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderShareBars(&buf, model.Totals{50, 50, 0, 0}, 40, false); err != nil {
		t.Fatalf("render bars: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != model.AllianceCount {
		t.Fatalf("expected %d lines, got %d", model.AllianceCount, len(lines))
	}
	barWidth := BarWidthFor(40, len("  50.00%"))
	ldf := strings.Count(lines[0], barFill)
	if ldf != barWidth/2 {
		t.Fatalf("expected %d filled cells for LDF, got %d", barWidth/2, ldf)
	}
	if strings.Count(lines[2], barFill) != 0 {
		t.Fatalf("expected empty NDA bar, got %q", lines[2])
	}
	if !strings.HasSuffix(lines[0], "50.00%") {
		t.Fatalf("expected share suffix, got %q", lines[0])
	}
}

func TestRenderShareBarsNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderShareBars(&buf, model.Totals{1, 0, 0, 0}, 40, false); err != nil {
		t.Fatalf("render bars: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no ANSI escapes, got %q", buf.String())
	}
}

func TestRenderShareBarsRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	if err := RenderShareBars(&buf, model.Totals{1, 0, 0, 0}, 40, true); err != nil {
		t.Fatalf("render bars: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected NO_COLOR to win over force, got %q", buf.String())
	}
}

func TestBarWidthForMinimum(t *testing.T) {
	if got := BarWidthFor(5, 8); got != minBarWidth {
		t.Fatalf("expected minimum width %d, got %d", minBarWidth, got)
	}
	if got := BarWidthFor(0, 8); got != minBarWidth {
		t.Fatalf("expected minimum width %d, got %d", minBarWidth, got)
	}
}
