package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/grading"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

type createQuizQuestion struct {
	Kind               model.QuestionKind `json:"kind" validate:"required,oneof=multiple_choice true_false short_answer"`
	Prompt             string             `json:"prompt" validate:"required"`
	Points             float64            `json:"points" validate:"required,gt=0"`
	Options            []string           `json:"options"`
	CorrectOptionIndex *int               `json:"correct_option_index"`
	CorrectBool        *bool              `json:"correct_answer"`
	AcceptedAnswers    []string           `json:"accepted_answers"`
	CaseSensitive      bool               `json:"case_sensitive"`
}

type createQuizRequest struct {
	CourseID       int64                `json:"course_id" validate:"required"`
	Title          string               `json:"title" validate:"required"`
	Description    string               `json:"description"`
	MaxAttempts    int                  `json:"max_attempts" validate:"required,gte=1"`
	PassingScore   *float64             `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	AvailableFrom  *time.Time           `json:"available_from"`
	AvailableUntil *time.Time           `json:"available_until"`
	Questions      []createQuizQuestion `json:"questions" validate:"required,min=1,dive"`
}

// validateQuestionKey checks that a question carries the answer key its kind
// requires.
func validateQuestionKey(i int, q createQuizQuestion) error {
	field := "questions[" + strconv.Itoa(i) + "]"
	switch q.Kind {
	case model.QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return apperr.NewValidationError(field, "multiple choice requires at least two options")
		}
		if q.CorrectOptionIndex == nil {
			return apperr.NewValidationError(field, "multiple choice requires correct_option_index")
		}
		if *q.CorrectOptionIndex < 0 || *q.CorrectOptionIndex >= len(q.Options) {
			return apperr.NewValidationError(field, "correct_option_index is out of range")
		}
	case model.QuestionTrueFalse:
		if q.CorrectBool == nil {
			return apperr.NewValidationError(field, "true/false requires correct_answer")
		}
	case model.QuestionShortAnswer:
		if len(q.AcceptedAnswers) == 0 {
			return apperr.NewValidationError(field, "short answer requires accepted_answers")
		}
	}
	return nil
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	caller, err := h.requireCourseManager(r, req.CourseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	questions := make([]model.QuizQuestion, 0, len(req.Questions))
	for i, q := range req.Questions {
		if err := validateQuestionKey(i, q); err != nil {
			h.respondError(w, r, err)
			return
		}
		questions = append(questions, model.QuizQuestion{
			Kind:               q.Kind,
			Prompt:             q.Prompt,
			Points:             q.Points,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			CorrectBool:        q.CorrectBool,
			AcceptedAnswers:    q.AcceptedAnswers,
			CaseSensitive:      q.CaseSensitive,
		})
	}

	id, err := h.store.CreateQuiz(model.Quiz{
		CourseID:       req.CourseID,
		Title:          req.Title,
		Description:    req.Description,
		MaxAttempts:    req.MaxAttempts,
		PassingScore:   req.PassingScore,
		AvailableFrom:  req.AvailableFrom,
		AvailableUntil: req.AvailableUntil,
		CreatedBy:      caller.ID,
		Questions:      questions,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	quiz, err := h.store.GetQuiz(req.CourseID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slog.Info("quiz created", "course_id", req.CourseID, "quiz_id", id,
		"questions", len(quiz.Questions), "total_points", quiz.TotalPoints)
	respond(w, http.StatusCreated, quiz)
}

// sanitizeQuiz strips the answer keys before a quiz is shown to a student.
func sanitizeQuiz(q model.Quiz) model.Quiz {
	questions := make([]model.QuizQuestion, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectOptionIndex = nil
		question.CorrectBool = nil
		question.AcceptedAnswers = nil
		questions[i] = question
	}
	q.Questions = questions
	return q
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	caller, err := h.requireCourseMember(r, courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	quizzes, err := h.store.ListQuizzes(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	manages, err := h.canManageCourse(caller, courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !manages {
		// Students only see published quizzes.
		published := quizzes[:0]
		for _, q := range quizzes {
			if q.Status == model.QuizPublished {
				published = append(published, q)
			}
		}
		quizzes = published
	}

	respond(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	caller, err := h.requireCourseMember(r, courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	quiz, err := h.store.GetQuiz(courseID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	manages, err := h.canManageCourse(caller, courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !manages {
		if quiz.Status != model.QuizPublished {
			h.respondError(w, r, apperr.ErrNotFound)
			return
		}
		quiz = sanitizeQuiz(quiz)
	}

	respond(w, http.StatusOK, quiz)
}

func (h *Handler) handlePublishQuiz(w http.ResponseWriter, r *http.Request) {
	h.updateQuizStatus(w, r, model.QuizPublished)
}

func (h *Handler) handleCloseQuiz(w http.ResponseWriter, r *http.Request) {
	h.updateQuizStatus(w, r, model.QuizClosed)
}

func (h *Handler) updateQuizStatus(w http.ResponseWriter, r *http.Request, next model.QuizStatus) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.UpdateQuizStatus(courseID, quizID, next); err != nil {
		h.respondError(w, r, err)
		return
	}

	quiz, err := h.store.GetQuiz(courseID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slog.Info("quiz status changed", "course_id", courseID, "quiz_id", quizID, "status", next)
	respond(w, http.StatusOK, quiz)
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	caller := model.UserFromContext(r.Context())
	enrolled, err := h.store.IsEnrolled(courseID, caller.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !enrolled {
		h.respondError(w, r, apperr.ErrNotEnrolled)
		return
	}

	attempt, err := h.store.StartAttempt(courseID, quizID, caller.ID, time.Now())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	quiz, err := h.store.GetQuiz(courseID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slog.Info("quiz attempt started", "quiz_id", quizID, "student_id", caller.ID,
		"attempt_number", attempt.AttemptNumber)
	respond(w, http.StatusCreated, map[string]any{
		"attempt": attempt,
		"quiz":    sanitizeQuiz(quiz),
	})
}

type submitAttemptRequest struct {
	Answers map[string]any `json:"answers" validate:"required"`
}

func (h *Handler) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	attemptID, err := urlID(r, "attemptID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req submitAttemptRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	answers := make(map[int64]any, len(req.Answers))
	for key, value := range req.Answers {
		questionID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			h.respondError(w, r, apperr.NewValidationError("answers", "question ids must be numeric"))
			return
		}
		answers[questionID] = value
	}

	caller := model.UserFromContext(r.Context())
	attempt, err := h.store.GetAttempt(quizID, attemptID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if attempt.StudentID != caller.ID {
		h.respondError(w, r, apperr.ErrForbidden)
		return
	}

	quiz, err := h.store.GetQuiz(courseID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result := grading.ScoreSubmission(quiz, answers)
	graded, err := h.store.SubmitAttempt(quizID, attemptID, result, time.Now())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	slog.Info("quiz attempt submitted", "quiz_id", quizID, "attempt_id", attemptID,
		"student_id", caller.ID, "score", graded.Score, "percentage", graded.Percentage)
	respond(w, http.StatusOK, graded)
}

func (h *Handler) handleQuizStatistics(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	quiz, err := h.store.GetQuiz(courseID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	attempts, err := h.store.SubmittedAttempts(quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, grading.ComputeQuizStatistics(quiz, attempts))
}
