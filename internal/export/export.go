// Package export renders a gradebook export as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

func header(gb *model.GradebookExport) []string {
	row := []string{"Student Name", "Email"}
	for _, col := range gb.Columns {
		row = append(row, col.Name)
	}
	return append(row, "Overall %", "Overall Grade")
}

// rowStrings renders one student row. Ungraded cells and a missing aggregate
// render as empty strings, never as zero.
func rowStrings(r model.GradebookRow) []string {
	row := []string{r.StudentName, r.Email}
	for _, cell := range r.Cells {
		if cell == nil {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatFloat(*cell, 'f', -1, 64))
	}
	pct := ""
	if r.OverallPercentage != nil {
		pct = fmt.Sprintf("%.2f", *r.OverallPercentage)
	}
	return append(row, pct, r.OverallLetterGrade)
}

// WriteCSV writes the gradebook as CSV: a header of the literal column names
// followed by one row per student.
func WriteCSV(w io.Writer, gb *model.GradebookExport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(gb)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range gb.Rows {
		if err := cw.Write(rowStrings(r)); err != nil {
			return fmt.Errorf("write row for student %d: %w", r.StudentID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the gradebook as an XLSX workbook with a single
// "Gradebook" sheet holding the same rows as the CSV export.
func WriteXLSX(w io.Writer, gb *model.GradebookExport) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Gradebook"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	writeRow := func(rowNum int, values []string) error {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, header(gb)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range gb.Rows {
		if err := writeRow(i+2, rowStrings(r)); err != nil {
			return fmt.Errorf("write row for student %d: %w", r.StudentID, err)
		}
	}

	return f.Write(w)
}
