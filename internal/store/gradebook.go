package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/grading"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the read helpers can
// run inside the grade-write transaction.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

// CreateColumn inserts a grade column.
func (s *Store) CreateColumn(col model.GradeColumn) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO grade_columns (course_id, assignment_id, name, category, points, weight, include_in_calc, display_order, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		col.CourseID, col.AssignmentID, col.Name, col.Category, col.Points, col.Weight,
		col.IncludeInCalc, col.DisplayOrder, col.CreatedBy, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListColumns returns a course's columns in display order.
func (s *Store) ListColumns(courseID int64) ([]model.GradeColumn, error) {
	return listColumns(s.db, courseID)
}

func listColumns(q querier, courseID int64) ([]model.GradeColumn, error) {
	rows, err := q.Query(
		`SELECT id, course_id, assignment_id, name, category, points, weight, include_in_calc, display_order, created_by, created_at
		 FROM grade_columns WHERE course_id = ? ORDER BY display_order, id`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []model.GradeColumn
	for rows.Next() {
		var c model.GradeColumn
		if err := rows.Scan(&c.ID, &c.CourseID, &c.AssignmentID, &c.Name, &c.Category, &c.Points,
			&c.Weight, &c.IncludeInCalc, &c.DisplayOrder, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// GetColumn returns a column scoped to a course.
func (s *Store) GetColumn(courseID, columnID int64) (model.GradeColumn, error) {
	return getColumn(s.db, courseID, columnID)
}

func getColumn(q querier, courseID, columnID int64) (model.GradeColumn, error) {
	var c model.GradeColumn
	err := q.QueryRow(
		`SELECT id, course_id, assignment_id, name, category, points, weight, include_in_calc, display_order, created_by, created_at
		 FROM grade_columns WHERE id = ? AND course_id = ?`, columnID, courseID,
	).Scan(&c.ID, &c.CourseID, &c.AssignmentID, &c.Name, &c.Category, &c.Points,
		&c.Weight, &c.IncludeInCalc, &c.DisplayOrder, &c.CreatedBy, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, apperr.ErrNotFound
	}
	return c, err
}

// UpdateColumn applies instructor edits to a column and recomputes every
// affected student aggregate, since points and inclusion can change.
func (s *Store) UpdateColumn(col model.GradeColumn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE grade_columns SET assignment_id = ?, name = ?, category = ?, points = ?, weight = ?, include_in_calc = ?, display_order = ?
		 WHERE id = ? AND course_id = ?`,
		col.AssignmentID, col.Name, col.Category, col.Points, col.Weight, col.IncludeInCalc,
		col.DisplayOrder, col.ID, col.CourseID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}

	students, err := studentsWithEntries(tx, col.CourseID, col.ID)
	if err != nil {
		return err
	}
	for _, studentID := range students {
		if err := recalculateRecord(tx, col.CourseID, studentID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteColumn removes a column together with its grade entries, then
// recomputes the aggregates the removed entries contributed to.
func (s *Store) DeleteColumn(courseID, columnID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	students, err := studentsWithEntries(tx, courseID, columnID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		`DELETE FROM grade_entries WHERE course_id = ? AND column_id = ?`, courseID, columnID,
	); err != nil {
		return err
	}

	res, err := tx.Exec(
		`DELETE FROM grade_columns WHERE id = ? AND course_id = ?`, columnID, courseID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}

	for _, studentID := range students {
		if err := recalculateRecord(tx, courseID, studentID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func studentsWithEntries(q querier, courseID, columnID int64) ([]int64, error) {
	rows, err := q.Query(
		`SELECT DISTINCT student_id FROM grade_entries WHERE course_id = ? AND column_id = ?`,
		courseID, columnID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GradeWrite is the instructor input for one grade entry.
type GradeWrite struct {
	Grade          float64
	IsOverride     bool
	OverrideReason string
}

// UpsertGrade records one student's score for one column. The entry merge,
// the history append (only when an existing value changes), and the full
// aggregate recompute commit as a single transaction, so the cached record
// can never drift from its entries.
func (s *Store) UpsertGrade(courseID, studentID, columnID, graderID int64, w GradeWrite) (model.GradeEntry, model.GradeRecord, error) {
	var entry model.GradeEntry
	var record model.GradeRecord

	tx, err := s.db.Begin()
	if err != nil {
		return entry, record, err
	}
	defer tx.Rollback()

	col, err := getColumn(tx, courseID, columnID)
	if err != nil {
		return entry, record, err
	}

	var priorGrade float64
	hadPrior := true
	err = tx.QueryRow(
		`SELECT grade FROM grade_entries WHERE course_id = ? AND student_id = ? AND column_id = ?`,
		courseID, studentID, columnID,
	).Scan(&priorGrade)
	if err == sql.ErrNoRows {
		hadPrior = false
	} else if err != nil {
		return entry, record, err
	}

	now := time.Now()
	if hadPrior && priorGrade != w.Grade {
		if _, err := tx.Exec(
			`INSERT INTO grade_history (course_id, student_id, column_id, old_grade, new_grade, changed_by, reason, is_override, changed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			courseID, studentID, columnID, priorGrade, w.Grade, graderID, w.OverrideReason, w.IsOverride, now,
		); err != nil {
			return entry, record, fmt.Errorf("append history: %w", err)
		}
	}

	percentage := grading.Percentage(w.Grade, col.Points)
	letter := grading.LetterGrade(percentage)

	if _, err := tx.Exec(
		`INSERT INTO grade_entries (course_id, student_id, column_id, grade, max_points, percentage, letter_grade, is_override, override_reason, graded_by, graded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(course_id, student_id, column_id) DO UPDATE SET
		   grade = excluded.grade, max_points = excluded.max_points, percentage = excluded.percentage,
		   letter_grade = excluded.letter_grade, is_override = excluded.is_override,
		   override_reason = excluded.override_reason, graded_by = excluded.graded_by, graded_at = excluded.graded_at`,
		courseID, studentID, columnID, w.Grade, col.Points, percentage, letter,
		w.IsOverride, w.OverrideReason, graderID, now,
	); err != nil {
		return entry, record, fmt.Errorf("upsert entry: %w", err)
	}

	if err := recalculateRecord(tx, courseID, studentID); err != nil {
		return entry, record, err
	}

	entry, err = getEntry(tx, courseID, studentID, columnID)
	if err != nil {
		return entry, record, err
	}
	rec, err := getRecord(tx, courseID, studentID)
	if err != nil {
		return entry, record, err
	}
	if rec != nil {
		record = *rec
	}

	return entry, record, tx.Commit()
}

// recalculateRecord rebuilds the cached aggregate for one student from the
// course's columns and the student's entries.
func recalculateRecord(q querier, courseID, studentID int64) error {
	cols, err := listColumns(q, courseID)
	if err != nil {
		return err
	}
	entries, err := entriesForStudent(q, courseID, studentID)
	if err != nil {
		return err
	}
	byColumn := make(map[int64]model.GradeEntry, len(entries))
	for _, e := range entries {
		byColumn[e.ColumnID] = e
	}

	agg := grading.ComputeAggregate(cols, byColumn)
	_, err = q.Exec(
		`INSERT INTO grade_records (course_id, student_id, overall_points_earned, overall_points_possible, overall_percentage, overall_letter_grade, calculated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(course_id, student_id) DO UPDATE SET
		   overall_points_earned = excluded.overall_points_earned,
		   overall_points_possible = excluded.overall_points_possible,
		   overall_percentage = excluded.overall_percentage,
		   overall_letter_grade = excluded.overall_letter_grade,
		   calculated_at = excluded.calculated_at`,
		courseID, studentID, agg.PointsEarned, agg.PointsPossible, agg.Percentage, agg.LetterGrade, time.Now(),
	)
	return err
}

// RecalculateRecord rebuilds one student's aggregate outside a grade write.
func (s *Store) RecalculateRecord(courseID, studentID int64) error {
	return recalculateRecord(s.db, courseID, studentID)
}

func getEntry(q querier, courseID, studentID, columnID int64) (model.GradeEntry, error) {
	var e model.GradeEntry
	err := q.QueryRow(
		`SELECT id, course_id, student_id, column_id, grade, max_points, percentage, letter_grade, is_override, override_reason, graded_by, graded_at
		 FROM grade_entries WHERE course_id = ? AND student_id = ? AND column_id = ?`,
		courseID, studentID, columnID,
	).Scan(&e.ID, &e.CourseID, &e.StudentID, &e.ColumnID, &e.Grade, &e.MaxPoints, &e.Percentage,
		&e.LetterGrade, &e.IsOverride, &e.OverrideReason, &e.GradedBy, &e.GradedAt)
	if err == sql.ErrNoRows {
		return e, apperr.ErrNotFound
	}
	return e, err
}

// EntriesForStudent returns all of a student's entries in a course.
func (s *Store) EntriesForStudent(courseID, studentID int64) ([]model.GradeEntry, error) {
	return entriesForStudent(s.db, courseID, studentID)
}

func entriesForStudent(q querier, courseID, studentID int64) ([]model.GradeEntry, error) {
	rows, err := q.Query(
		`SELECT id, course_id, student_id, column_id, grade, max_points, percentage, letter_grade, is_override, override_reason, graded_by, graded_at
		 FROM grade_entries WHERE course_id = ? AND student_id = ? ORDER BY column_id`,
		courseID, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.GradeEntry
	for rows.Next() {
		var e model.GradeEntry
		if err := rows.Scan(&e.ID, &e.CourseID, &e.StudentID, &e.ColumnID, &e.Grade, &e.MaxPoints,
			&e.Percentage, &e.LetterGrade, &e.IsOverride, &e.OverrideReason, &e.GradedBy, &e.GradedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetRecord returns the cached aggregate for a student, or nil when the
// student has never been graded.
func (s *Store) GetRecord(courseID, studentID int64) (*model.GradeRecord, error) {
	return getRecord(s.db, courseID, studentID)
}

func getRecord(q querier, courseID, studentID int64) (*model.GradeRecord, error) {
	var r model.GradeRecord
	err := q.QueryRow(
		`SELECT id, course_id, student_id, overall_points_earned, overall_points_possible, overall_percentage, overall_letter_grade, calculated_at
		 FROM grade_records WHERE course_id = ? AND student_id = ?`, courseID, studentID,
	).Scan(&r.ID, &r.CourseID, &r.StudentID, &r.OverallPointsEarned, &r.OverallPointsPossible,
		&r.OverallPercentage, &r.OverallLetterGrade, &r.CalculatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListHistory returns a student's grade change log, newest first.
func (s *Store) ListHistory(courseID, studentID int64) ([]model.GradeHistory, error) {
	rows, err := s.db.Query(
		`SELECT id, course_id, student_id, column_id, old_grade, new_grade, changed_by, reason, is_override, changed_at
		 FROM grade_history WHERE course_id = ? AND student_id = ? ORDER BY id DESC`,
		courseID, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []model.GradeHistory
	for rows.Next() {
		var h model.GradeHistory
		if err := rows.Scan(&h.ID, &h.CourseID, &h.StudentID, &h.ColumnID, &h.OldGrade, &h.NewGrade,
			&h.ChangedBy, &h.Reason, &h.IsOverride, &h.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ColumnStatistics summarizes the recorded grades for one column. Returns
// nil when no student has a grade.
func (s *Store) ColumnStatistics(courseID, columnID int64) (*model.ColumnStatistics, error) {
	if _, err := s.GetColumn(courseID, columnID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT grade FROM grade_entries WHERE course_id = ? AND column_id = ?`,
		courseID, columnID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grades []float64
	for rows.Next() {
		var g float64
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grading.Summarize(grades), nil
}

// GradeCenter builds the instructor view: every column and every enrolled
// student's entries plus cached aggregate.
func (s *Store) GradeCenter(courseID int64) (*model.GradeCenter, error) {
	cols, err := s.ListColumns(courseID)
	if err != nil {
		return nil, err
	}
	students, err := s.Roster(courseID)
	if err != nil {
		return nil, err
	}

	center := &model.GradeCenter{CourseID: courseID, Columns: cols}
	for _, student := range students {
		entries, err := s.EntriesForStudent(courseID, student.ID)
		if err != nil {
			return nil, err
		}
		record, err := s.GetRecord(courseID, student.ID)
		if err != nil {
			return nil, err
		}
		center.Students = append(center.Students, model.GradeCenterRow{
			Student: student,
			Entries: entries,
			Record:  record,
		})
	}
	return center, nil
}
