package stats

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/boothdesk/internal/model"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// ExportXLSX writes the ranked results and the alliance summary as a two
// sheet workbook.
func ExportXLSX(w io.Writer, entities []model.RankedEntity, verdicts map[int64]*model.Verdict) error {
	f := excelize.NewFile()
	defer func() {
		// Best-effort close; the workbook has already been written or failed.
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheet(f, resultsSheet, ResultHeaders(), resultCells(entities, verdicts), bold); err != nil {
		return err
	}
	summary := Summarize(entities)
	if err := writeSheet(f, summarySheet, SummaryHeaders(), summaryCells(summary, TotalVotes(entities)), bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve %s header range: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve %s row %d: %w", sheet, i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func resultCells(entities []model.RankedEntity, verdicts map[int64]*model.Verdict) [][]interface{} {
	text := ResultRows(entities, verdicts)
	rows := make([][]interface{}, 0, len(entities))
	for i, e := range entities {
		total := e.Totals.Sum()
		row := []interface{}{text[i][0], e.EntityLabel}
		for _, a := range model.Alliances {
			votes := e.Totals.Get(a)
			row = append(row, votes, percentValue(votes, total))
		}
		row = append(row, total)
		for _, cell := range text[i][len(row):] {
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func summaryCells(summary Summary, totals model.Totals) [][]interface{} {
	grand := totals.Sum()
	rows := make([][]interface{}, 0, model.AllianceCount)
	for _, a := range model.Alliances {
		s := summary.Get(a)
		votes := totals.Get(a)
		rows = append(rows, []interface{}{
			string(a), votes, percentValue(votes, grand), s.FirstCount, s.SecondCount, s.ThirdCount,
		})
	}
	return rows
}

func percentValue(votes, total int64) float64 {
	return decimal.RequireFromString(Percent(votes, total)).InexactFloat64()
}
