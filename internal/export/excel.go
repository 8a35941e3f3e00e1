// Package export writes shortlist and cohort reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"resume-ranker/internal/matching"
)

const (
	SummarySheet   = "Summary"
	ShortlistSheet = "Shortlist"
	CohortSheet    = "Cohort"
)

// CohortRow is one resume in a cohort report.
type CohortRow struct {
	Rank         int
	ResumeID     string
	StudentID    string
	Score        int
	RankingScore int
	Skills       int
	Projects     int
	Experience   int
	Embedding    string
}

// ShortlistReport is a shortlist with the job description it answers.
type ShortlistReport struct {
	JDText      string
	GeneratedAt time.Time
	Results     []matching.ShortlistResult
}

// WriteShortlist writes a two-sheet workbook: the job description summary
// and the ranked shortlist.
func WriteShortlist(w io.Writer, rep ShortlistReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(ShortlistSheet); err != nil {
		return err
	}

	summary := [][]any{
		{"Generated At", rep.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Candidates", len(rep.Results)},
		{"Job Description", rep.JDText},
	}
	if err := writeRows(f, SummarySheet, summary, 1); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 80); err != nil {
		return err
	}

	headers := []any{"Rank", "Resume ID", "Match Score", "Similarity", "Keyword Match", "Base Score"}
	rows := make([][]any, 0, len(rep.Results))
	for i, r := range rep.Results {
		rows = append(rows, []any{i + 1, r.ResumeID, r.MatchScore, r.Similarity, r.KeywordMatch, r.BaseScore})
	}
	if err := writeTable(f, ShortlistSheet, headers, rows); err != nil {
		return fmt.Errorf("shortlist sheet: %w", err)
	}

	f.SetActiveSheet(1)
	return f.Write(w)
}

// WriteCohort writes one sheet listing the cohort in rank order.
func WriteCohort(w io.Writer, batch, department string, rows []CohortRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CohortSheet); err != nil {
		return err
	}
	title := fmt.Sprintf("Batch %s / Department %s", orUnknown(batch), orUnknown(department))
	if err := f.SetCellValue(CohortSheet, "A1", title); err != nil {
		return err
	}

	headers := []any{"Rank", "Resume ID", "Student ID", "Score", "Ranking Score", "Skills", "Projects", "Experience", "Embedding"}
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{r.Rank, r.ResumeID, r.StudentID, r.Score, r.RankingScore, r.Skills, r.Projects, r.Experience, r.Embedding})
	}
	if err := writeTableAt(f, CohortSheet, headers, data, 3); err != nil {
		return fmt.Errorf("cohort sheet: %w", err)
	}
	return f.Write(w)
}

func writeTable(f *excelize.File, sheet string, headers []any, rows [][]any) error {
	return writeTableAt(f, sheet, headers, rows, 1)
}

func writeTableAt(f *excelize.File, sheet string, headers []any, rows [][]any, startRow int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := writeRows(f, sheet, [][]any{headers}, startRow); err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, startRow)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), startRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return err
	}
	return writeRows(f, sheet, rows, startRow+1)
}

func writeRows(f *excelize.File, sheet string, rows [][]any, startRow int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
