package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"No", "Booth", "Votes"}
	rows := [][]string{
		{"1", "Govt LPS", "1200"},
		{"12A", "Town Hall", "87"},
	}
	rightAlign := map[int]bool{2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[0] != "No   Booth      Votes" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "---  ---------  -----" {
		t.Fatalf("unexpected rule line: %q", lines[1])
	}
	if lines[2] != "1    Govt LPS    1200" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
	if lines[3] != "12A  Town Hall     87" {
		t.Fatalf("unexpected row line: %q", lines[3])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Government Higher Secondary School", 12); got != "Governmen..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("Hall", 12); got != "Hall" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
