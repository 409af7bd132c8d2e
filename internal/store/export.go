package store

import (
	"fmt"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

// BuildGradebookExport assembles the export view of a course's gradebook:
// columns in display order and one row per enrolled student. Ungraded cells
// stay nil so they export as empty values, not zeros.
func (s *Store) BuildGradebookExport(courseID int64) (*model.GradebookExport, error) {
	columns, err := s.ListColumns(courseID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	students, err := s.Roster(courseID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	export := &model.GradebookExport{CourseID: courseID, Columns: columns}
	for _, student := range students {
		entries, err := s.EntriesForStudent(courseID, student.ID)
		if err != nil {
			return nil, fmt.Errorf("entries for student %d: %w", student.ID, err)
		}
		byColumn := make(map[int64]model.GradeEntry, len(entries))
		for _, e := range entries {
			byColumn[e.ColumnID] = e
		}

		row := model.GradebookRow{
			StudentID:   student.ID,
			StudentName: student.DisplayName,
			Email:       student.Email,
			Cells:       make([]*float64, len(columns)),
		}
		for i, col := range columns {
			if entry, ok := byColumn[col.ID]; ok {
				grade := entry.Grade
				row.Cells[i] = &grade
			}
		}

		record, err := s.GetRecord(courseID, student.ID)
		if err != nil {
			return nil, fmt.Errorf("record for student %d: %w", student.ID, err)
		}
		if record != nil {
			pct := record.OverallPercentage
			row.OverallPercentage = &pct
			row.OverallLetterGrade = record.OverallLetterGrade
		}

		export.Rows = append(export.Rows, row)
	}

	return export, nil
}
