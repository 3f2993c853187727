package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/boothdesk/internal/model"
)

// ResultHeaders returns the column titles of ResultRows.
func ResultHeaders() []string {
	headers := []string{"No", "Name"}
	for _, a := range model.Alliances {
		headers = append(headers, string(a), string(a)+"%")
	}
	return append(headers, "Total", "Winner", "Runner-up", "Margin", "Verdict")
}

// ResultRows builds one row of cells per ranked entity. verdicts may be nil.
func ResultRows(entities []model.RankedEntity, verdicts map[int64]*model.Verdict) [][]string {
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		total := e.Totals.Sum()
		row := []string{e.EntityNumber + e.EntitySuffix, e.EntityLabel}
		for _, a := range model.Alliances {
			votes := e.Totals.Get(a)
			row = append(row, strconv.FormatInt(votes, 10), Percent(votes, total))
		}
		winner, runnerUp, margin := "-", "-", "-"
		if p, ok := Winner(e); ok {
			winner = string(p.Alliance)
		}
		if p, ok := RunnerUp(e); ok {
			runnerUp = string(p.Alliance)
		}
		if m, ok := Margin(e); ok {
			margin = strconv.FormatInt(m, 10)
		}
		row = append(row, strconv.FormatInt(total, 10), winner, runnerUp, margin, VerdictLabel(verdicts[e.EntityID]))
		rows = append(rows, row)
	}
	return rows
}

// VerdictLabel renders a backend verdict for display.
func VerdictLabel(v *model.Verdict) string {
	if v == nil || v.Class == "" {
		return "-"
	}
	if v.GapPercent == nil {
		return v.Class
	}
	return fmt.Sprintf("%s (%.2f%%)", v.Class, *v.GapPercent)
}

// SummaryHeaders returns the column titles of SummaryRows.
func SummaryHeaders() []string {
	return []string{"Alliance", "Votes", "Share", "1st", "2nd", "3rd"}
}

// SummaryRows builds one row per alliance with its vote share and placements.
func SummaryRows(summary Summary, totals model.Totals) [][]string {
	grand := totals.Sum()
	rows := make([][]string, 0, model.AllianceCount)
	for _, a := range model.Alliances {
		s := summary.Get(a)
		votes := totals.Get(a)
		rows = append(rows, []string{
			string(a),
			strconv.FormatInt(votes, 10),
			Percent(votes, grand) + "%",
			strconv.Itoa(s.FirstCount),
			strconv.Itoa(s.SecondCount),
			strconv.Itoa(s.ThirdCount),
		})
	}
	return rows
}

// RenderResultsTable prints the per-entity ranking table.
func RenderResultsTable(w io.Writer, title string, entities []model.RankedEntity, verdicts map[int64]*model.Verdict) error {
	if len(entities) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	rightAlign := map[int]bool{}
	for i := 2; i < 2+2*model.AllianceCount+1; i++ {
		rightAlign[i] = true
	}
	rightAlign[2+2*model.AllianceCount+3] = true
	if err := writeLines(w, formatTable(ResultHeaders(), ResultRows(entities, verdicts), rightAlign)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSummary prints alliance placement counts and vote shares.
func RenderSummary(w io.Writer, summary Summary, totals model.Totals, entityCount int) error {
	if _, err := fmt.Fprintln(w, "Alliance Performance"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Entities: %d\n", entityCount); err != nil {
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	if err := writeLines(w, formatTable(SummaryHeaders(), SummaryRows(summary, totals), rightAlign)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
