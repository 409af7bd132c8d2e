package model

// GradebookExport is the export-ready view of one course's gradebook:
// columns in display order plus one row per enrolled student.
type GradebookExport struct {
	CourseID int64          `json:"course_id"`
	Columns  []GradeColumn  `json:"columns"`
	Rows     []GradebookRow `json:"rows"`
}

// GradeCenter is the instructor view of a course's gradebook: every column
// and every enrolled student's entries plus cached aggregate.
type GradeCenter struct {
	CourseID int64            `json:"course_id"`
	Columns  []GradeColumn    `json:"columns"`
	Students []GradeCenterRow `json:"students"`
}

// GradeCenterRow is one student's slice of the grade center.
type GradeCenterRow struct {
	Student User         `json:"student"`
	Entries []GradeEntry `json:"entries"`
	Record  *GradeRecord `json:"record,omitempty"`
}

// GradebookRow holds one student's exported grades. Cells align with the
// export's Columns slice; a nil cell means the column is ungraded for the
// student and exports as an empty value, not zero.
type GradebookRow struct {
	StudentID          int64      `json:"student_id"`
	StudentName        string     `json:"student_name"`
	Email              string     `json:"email"`
	Cells              []*float64 `json:"cells"`
	OverallPercentage  *float64   `json:"overall_percentage,omitempty"`
	OverallLetterGrade string     `json:"overall_letter_grade,omitempty"`
}
