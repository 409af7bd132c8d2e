package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/grading"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

// CreateQuiz inserts a quiz with its question list. The quiz starts in draft
// and its total points are the sum of the question points.
func (s *Store) CreateQuiz(q model.Quiz) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total float64
	for _, question := range q.Questions {
		total += question.Points
	}

	res, err := tx.Exec(
		`INSERT INTO quizzes (course_id, title, description, status, max_attempts, passing_score, total_points, available_from, available_until, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.CourseID, q.Title, q.Description, model.QuizDraft, q.MaxAttempts, q.PassingScore,
		total, q.AvailableFrom, q.AvailableUntil, q.CreatedBy, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	quizID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, question := range q.Questions {
		options, err := json.Marshal(question.Options)
		if err != nil {
			return 0, err
		}
		accepted, err := json.Marshal(question.AcceptedAnswers)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(
			`INSERT INTO quiz_questions (quiz_id, kind, prompt, points, options, correct_option_index, correct_bool, accepted_answers, case_sensitive, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			quizID, question.Kind, question.Prompt, question.Points, string(options),
			question.CorrectOptionIndex, question.CorrectBool, string(accepted),
			question.CaseSensitive, i,
		); err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return quizID, tx.Commit()
}

// GetQuiz returns a quiz with its questions, scoped to a course.
func (s *Store) GetQuiz(courseID, quizID int64) (model.Quiz, error) {
	q, err := getQuiz(s.db, courseID, quizID)
	if err != nil {
		return q, err
	}
	q.Questions, err = questionsForQuiz(s.db, quizID)
	return q, err
}

func getQuiz(q querier, courseID, quizID int64) (model.Quiz, error) {
	var quiz model.Quiz
	err := q.QueryRow(
		`SELECT id, course_id, title, description, status, max_attempts, passing_score, total_points, available_from, available_until, total_attempts, average_score, created_by, created_at
		 FROM quizzes WHERE id = ? AND course_id = ?`, quizID, courseID,
	).Scan(&quiz.ID, &quiz.CourseID, &quiz.Title, &quiz.Description, &quiz.Status, &quiz.MaxAttempts,
		&quiz.PassingScore, &quiz.TotalPoints, &quiz.AvailableFrom, &quiz.AvailableUntil,
		&quiz.TotalAttempts, &quiz.AverageScore, &quiz.CreatedBy, &quiz.CreatedAt)
	if err == sql.ErrNoRows {
		return quiz, apperr.ErrNotFound
	}
	return quiz, err
}

func questionsForQuiz(q querier, quizID int64) ([]model.QuizQuestion, error) {
	rows, err := q.Query(
		`SELECT id, quiz_id, kind, prompt, points, options, correct_option_index, correct_bool, accepted_answers, case_sensitive, position
		 FROM quiz_questions WHERE quiz_id = ? ORDER BY position, id`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.QuizQuestion
	for rows.Next() {
		var question model.QuizQuestion
		var options, accepted string
		if err := rows.Scan(&question.ID, &question.QuizID, &question.Kind, &question.Prompt,
			&question.Points, &options, &question.CorrectOptionIndex, &question.CorrectBool,
			&accepted, &question.CaseSensitive, &question.Position); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &question.Options); err != nil {
			return nil, fmt.Errorf("decode options for question %d: %w", question.ID, err)
		}
		if err := json.Unmarshal([]byte(accepted), &question.AcceptedAnswers); err != nil {
			return nil, fmt.Errorf("decode accepted answers for question %d: %w", question.ID, err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// ListQuizzes returns a course's quizzes without question lists.
func (s *Store) ListQuizzes(courseID int64) ([]model.Quiz, error) {
	rows, err := s.db.Query(
		`SELECT id, course_id, title, description, status, max_attempts, passing_score, total_points, available_from, available_until, total_attempts, average_score, created_by, created_at
		 FROM quizzes WHERE course_id = ? ORDER BY id`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quizzes []model.Quiz
	for rows.Next() {
		var quiz model.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.CourseID, &quiz.Title, &quiz.Description, &quiz.Status,
			&quiz.MaxAttempts, &quiz.PassingScore, &quiz.TotalPoints, &quiz.AvailableFrom,
			&quiz.AvailableUntil, &quiz.TotalAttempts, &quiz.AverageScore, &quiz.CreatedBy, &quiz.CreatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

// validTransitions encodes the one-way quiz lifecycle.
var validTransitions = map[model.QuizStatus]model.QuizStatus{
	model.QuizDraft:     model.QuizPublished,
	model.QuizPublished: model.QuizClosed,
}

// UpdateQuizStatus advances a quiz along draft -> published -> closed. Any
// other transition fails.
func (s *Store) UpdateQuizStatus(courseID, quizID int64, next model.QuizStatus) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	quiz, err := getQuiz(tx, courseID, quizID)
	if err != nil {
		return err
	}
	if validTransitions[quiz.Status] != next {
		return fmt.Errorf("%w: %s -> %s", apperr.ErrBadTransition, quiz.Status, next)
	}
	if _, err := tx.Exec(`UPDATE quizzes SET status = ? WHERE id = ?`, next, quizID); err != nil {
		return err
	}
	return tx.Commit()
}

// StartAttempt opens a new attempt for a student. The availability window,
// publication status, and attempt limit are checked inside the transaction
// that inserts the attempt row, and the (quiz, student, attempt_number)
// unique constraint rejects a concurrent duplicate instead of allowing it.
func (s *Store) StartAttempt(courseID, quizID, studentID int64, now time.Time) (model.QuizAttempt, error) {
	var attempt model.QuizAttempt

	tx, err := s.db.Begin()
	if err != nil {
		return attempt, err
	}
	defer tx.Rollback()

	quiz, err := getQuiz(tx, courseID, quizID)
	if err != nil {
		return attempt, err
	}
	if quiz.Status != model.QuizPublished {
		return attempt, apperr.ErrNotPublished
	}
	if quiz.AvailableFrom != nil && now.Before(*quiz.AvailableFrom) {
		return attempt, apperr.ErrQuizNotAvailable
	}
	if quiz.AvailableUntil != nil && now.After(*quiz.AvailableUntil) {
		return attempt, apperr.ErrQuizNotAvailable
	}

	var prior int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = ? AND student_id = ?`,
		quizID, studentID,
	).Scan(&prior); err != nil {
		return attempt, err
	}
	if prior+1 > quiz.MaxAttempts {
		return attempt, apperr.ErrMaxAttempts
	}

	res, err := tx.Exec(
		`INSERT INTO quiz_attempts (quiz_id, student_id, attempt_number, started_at) VALUES (?, ?, ?, ?)`,
		quizID, studentID, prior+1, now,
	)
	if err != nil {
		return attempt, fmt.Errorf("insert attempt: %w", err)
	}
	attemptID, err := res.LastInsertId()
	if err != nil {
		return attempt, err
	}
	if err := tx.Commit(); err != nil {
		return attempt, err
	}

	attempt = model.QuizAttempt{
		ID:            attemptID,
		QuizID:        quizID,
		StudentID:     studentID,
		AttemptNumber: prior + 1,
		StartedAt:     now,
	}
	return attempt, nil
}

// GetAttempt returns an attempt with its graded answers.
func (s *Store) GetAttempt(quizID, attemptID int64) (model.QuizAttempt, error) {
	attempt, err := getAttempt(s.db, quizID, attemptID)
	if err != nil {
		return attempt, err
	}
	attempt.Answers, err = answersForAttempt(s.db, attemptID)
	return attempt, err
}

func getAttempt(q querier, quizID, attemptID int64) (model.QuizAttempt, error) {
	var a model.QuizAttempt
	var passed sql.NullBool
	err := q.QueryRow(
		`SELECT id, quiz_id, student_id, attempt_number, started_at, submitted_at, is_submitted, score, percentage, passed, time_taken_minutes, auto_graded
		 FROM quiz_attempts WHERE id = ? AND quiz_id = ?`, attemptID, quizID,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.AttemptNumber, &a.StartedAt, &a.SubmittedAt,
		&a.IsSubmitted, &a.Score, &a.Percentage, &passed, &a.TimeTakenMinutes, &a.AutoGraded)
	if err == sql.ErrNoRows {
		return a, apperr.ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if passed.Valid {
		a.Passed = &passed.Bool
	}
	return a, nil
}

func answersForAttempt(q querier, attemptID int64) ([]model.QuizAnswer, error) {
	rows, err := q.Query(
		`SELECT id, attempt_id, question_id, submitted_value, is_correct, points_earned
		 FROM quiz_answers WHERE attempt_id = ? ORDER BY question_id`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.QuizAnswer
	for rows.Next() {
		var a model.QuizAnswer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SubmittedValue, &a.IsCorrect, &a.PointsEarned); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// SubmitAttempt persists a graded submission and closes the attempt, then
// recomputes the quiz rollups over all submitted attempts. A second submit
// of the same attempt fails inside the transaction.
func (s *Store) SubmitAttempt(quizID, attemptID int64, result grading.SubmissionResult, now time.Time) (model.QuizAttempt, error) {
	var out model.QuizAttempt

	tx, err := s.db.Begin()
	if err != nil {
		return out, err
	}
	defer tx.Rollback()

	attempt, err := getAttempt(tx, quizID, attemptID)
	if err != nil {
		return out, err
	}
	if attempt.IsSubmitted {
		return out, apperr.ErrAlreadySubmitted
	}

	taken := int(math.Round(now.Sub(attempt.StartedAt).Minutes()))

	var passed any
	if result.Passed != nil {
		passed = *result.Passed
	}
	if _, err := tx.Exec(
		`UPDATE quiz_attempts SET submitted_at = ?, is_submitted = 1, score = ?, percentage = ?, passed = ?, time_taken_minutes = ?, auto_graded = 1
		 WHERE id = ?`,
		now, result.Score, result.Percentage, passed, taken, attemptID,
	); err != nil {
		return out, fmt.Errorf("close attempt: %w", err)
	}

	for _, ans := range result.Answers {
		if _, err := tx.Exec(
			`INSERT INTO quiz_answers (attempt_id, question_id, submitted_value, is_correct, points_earned)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(attempt_id, question_id) DO UPDATE SET
			   submitted_value = excluded.submitted_value, is_correct = excluded.is_correct, points_earned = excluded.points_earned`,
			attemptID, ans.QuestionID, ans.SubmittedValue, ans.IsCorrect, ans.PointsEarned,
		); err != nil {
			return out, fmt.Errorf("save answer for question %d: %w", ans.QuestionID, err)
		}
	}

	// Full rescan of submitted attempts, not an incremental update.
	if _, err := tx.Exec(
		`UPDATE quizzes SET
		   total_attempts = (SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = ? AND is_submitted = 1),
		   average_score = COALESCE((SELECT AVG(score) FROM quiz_attempts WHERE quiz_id = ? AND is_submitted = 1), 0)
		 WHERE id = ?`,
		quizID, quizID, quizID,
	); err != nil {
		return out, fmt.Errorf("update quiz rollups: %w", err)
	}

	out, err = getAttempt(tx, quizID, attemptID)
	if err != nil {
		return out, err
	}
	out.Answers, err = answersForAttempt(tx, attemptID)
	if err != nil {
		return out, err
	}
	return out, tx.Commit()
}

// SubmittedAttempts returns every submitted attempt for a quiz with answers,
// for statistics.
func (s *Store) SubmittedAttempts(quizID int64) ([]model.QuizAttempt, error) {
	rows, err := s.db.Query(
		`SELECT id, quiz_id, student_id, attempt_number, started_at, submitted_at, is_submitted, score, percentage, passed, time_taken_minutes, auto_graded
		 FROM quiz_attempts WHERE quiz_id = ? AND is_submitted = 1 ORDER BY id`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		var passed sql.NullBool
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.AttemptNumber, &a.StartedAt,
			&a.SubmittedAt, &a.IsSubmitted, &a.Score, &a.Percentage, &passed, &a.TimeTakenMinutes, &a.AutoGraded); err != nil {
			return nil, err
		}
		if passed.Valid {
			a.Passed = &passed.Bool
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range attempts {
		attempts[i].Answers, err = answersForAttempt(s.db, attempts[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return attempts, nil
}
