package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleInstructor is an instructor user role.
	UserRoleInstructor UserRole = "instructor"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthToken represents a server-side bearer token.
type AuthToken struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Course represents a course owned by an instructor.
type Course struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Code         string    `json:"code"`
	InstructorID int64     `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID         int64     `json:"id"`
	CourseID   int64     `json:"course_id"`
	StudentID  int64     `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Announcement is a course-wide message posted by an instructor.
type Announcement struct {
	ID       int64     `json:"id"`
	CourseID int64     `json:"course_id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	PostedBy int64     `json:"posted_by"`
	PostedAt time.Time `json:"posted_at"`
}

// Assignment is a piece of gradable coursework. Grade columns may link to one.
type Assignment struct {
	ID          int64      `json:"id"`
	CourseID    int64      `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Points      float64    `json:"points"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GradeColumn is a gradable category within a course's gradebook.
type GradeColumn struct {
	ID            int64     `json:"id"`
	CourseID      int64     `json:"course_id"`
	AssignmentID  *int64    `json:"assignment_id,omitempty"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Points        float64   `json:"points"`
	Weight        *float64  `json:"weight,omitempty"`
	IncludeInCalc bool      `json:"include_in_calculations"`
	DisplayOrder  int       `json:"display_order"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// GradeEntry is one student's score for one grade column.
type GradeEntry struct {
	ID             int64     `json:"id"`
	CourseID       int64     `json:"course_id"`
	StudentID      int64     `json:"student_id"`
	ColumnID       int64     `json:"column_id"`
	Grade          float64   `json:"grade"`
	MaxPoints      float64   `json:"max_points"`
	Percentage     float64   `json:"percentage"`
	LetterGrade    string    `json:"letter_grade"`
	IsOverride     bool      `json:"is_override"`
	OverrideReason string    `json:"override_reason,omitempty"`
	GradedBy       int64     `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}

// GradeRecord is the cached per-student aggregate over all grade entries in a
// course. It is recomputed in the same transaction as any entry write.
type GradeRecord struct {
	ID                    int64     `json:"id"`
	CourseID              int64     `json:"course_id"`
	StudentID             int64     `json:"student_id"`
	OverallPointsEarned   float64   `json:"overall_points_earned"`
	OverallPointsPossible float64   `json:"overall_points_possible"`
	OverallPercentage     float64   `json:"overall_percentage"`
	OverallLetterGrade    string    `json:"overall_letter_grade"`
	CalculatedAt          time.Time `json:"calculated_at"`
}

// GradeHistory is an append-only log entry, written only when an existing
// grade value is overwritten.
type GradeHistory struct {
	ID         int64     `json:"id"`
	CourseID   int64     `json:"course_id"`
	StudentID  int64     `json:"student_id"`
	ColumnID   int64     `json:"column_id"`
	OldGrade   float64   `json:"old_grade"`
	NewGrade   float64   `json:"new_grade"`
	ChangedBy  int64     `json:"changed_by"`
	Reason     string    `json:"reason,omitempty"`
	IsOverride bool      `json:"is_override"`
	ChangedAt  time.Time `json:"changed_at"`
}

// ColumnStatistics summarizes the recorded grades for one column. Students
// without an entry are excluded, not counted as zero.
type ColumnStatistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// QuizStatus represents the lifecycle state of a quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
	QuizClosed    QuizStatus = "closed"
)

// QuestionKind represents the type of a quiz question.
type QuestionKind string

const (
	QuestionMultipleChoice QuestionKind = "multiple_choice"
	QuestionTrueFalse      QuestionKind = "true_false"
	QuestionShortAnswer    QuestionKind = "short_answer"
)

// Quiz holds a question list plus scoring config and rollup statistics.
type Quiz struct {
	ID             int64          `json:"id"`
	CourseID       int64          `json:"course_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Status         QuizStatus     `json:"status"`
	MaxAttempts    int            `json:"max_attempts"`
	PassingScore   *float64       `json:"passing_score,omitempty"`
	TotalPoints    float64        `json:"total_points"`
	AvailableFrom  *time.Time     `json:"available_from,omitempty"`
	AvailableUntil *time.Time     `json:"available_until,omitempty"`
	TotalAttempts  int            `json:"total_attempts"`
	AverageScore   float64        `json:"average_score"`
	CreatedBy      int64          `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	Questions      []QuizQuestion `json:"questions,omitempty"`
}

// QuizQuestion carries its own point value and the correct-answer key.
type QuizQuestion struct {
	ID                 int64        `json:"id"`
	QuizID             int64        `json:"quiz_id"`
	Kind               QuestionKind `json:"kind"`
	Prompt             string       `json:"prompt"`
	Points             float64      `json:"points"`
	Options            []string     `json:"options,omitempty"`
	CorrectOptionIndex *int         `json:"correct_option_index,omitempty"`
	CorrectBool        *bool        `json:"correct_answer,omitempty"`
	AcceptedAnswers    []string     `json:"accepted_answers,omitempty"`
	CaseSensitive      bool         `json:"case_sensitive"`
	Position           int          `json:"position"`
}

// QuizAttempt is one student's attempt at a quiz. Attempt numbers are unique
// per (quiz, student) and assigned when the attempt row is inserted.
type QuizAttempt struct {
	ID               int64        `json:"id"`
	QuizID           int64        `json:"quiz_id"`
	StudentID        int64        `json:"student_id"`
	AttemptNumber    int          `json:"attempt_number"`
	StartedAt        time.Time    `json:"started_at"`
	SubmittedAt      *time.Time   `json:"submitted_at,omitempty"`
	IsSubmitted      bool         `json:"is_submitted"`
	Score            float64      `json:"score"`
	Percentage       float64      `json:"percentage"`
	Passed           *bool        `json:"passed,omitempty"`
	TimeTakenMinutes int          `json:"time_taken_minutes"`
	AutoGraded       bool         `json:"auto_graded"`
	Answers          []QuizAnswer `json:"answers,omitempty"`
}

// QuizAnswer is one graded answer within an attempt. SubmittedValue holds the
// raw JSON value the student sent for the question.
type QuizAnswer struct {
	ID             int64   `json:"id"`
	AttemptID      int64   `json:"attempt_id"`
	QuestionID     int64   `json:"question_id"`
	SubmittedValue string  `json:"submitted_value"`
	IsCorrect      bool    `json:"is_correct"`
	PointsEarned   float64 `json:"points_earned"`
}

// QuestionAccuracy is the share of correct answers for one question across
// all submitted attempts.
type QuestionAccuracy struct {
	QuestionID int64   `json:"question_id"`
	Answered   int     `json:"answered"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
}

// QuizStatistics aggregates best-attempt scores across students.
type QuizStatistics struct {
	Students    int                `json:"students"`
	MeanScore   float64            `json:"mean_score"`
	MedianScore float64            `json:"median_score"`
	MinScore    float64            `json:"min_score"`
	MaxScore    float64            `json:"max_score"`
	StdDevScore float64            `json:"std_dev_score"`
	PassRate    float64            `json:"pass_rate"`
	PerQuestion []QuestionAccuracy `json:"per_question"`
}
