package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	validate *validator.Validate
}

// New creates a new Handler.
func New(s *store.Store) *Handler {
	return &Handler{
		store:    s,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/auth/logout", h.handleLogout)

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", h.handleListCourses)
			r.Get("/{courseID}/announcements", h.handleListAnnouncements)
			r.Get("/{courseID}/assignments", h.handleListAssignments)
			r.With(requireRole(model.UserRoleInstructor, model.UserRoleAdmin)).Group(func(r chi.Router) {
				r.Post("/", h.handleCreateCourse)
				r.Post("/{courseID}/enroll", h.handleEnroll)
				r.Get("/{courseID}/roster", h.handleRoster)
				r.Post("/{courseID}/announcements", h.handleCreateAnnouncement)
				r.Delete("/{courseID}/announcements/{announcementID}", h.handleDeleteAnnouncement)
				r.Post("/{courseID}/assignments", h.handleCreateAssignment)
			})
		})

		r.Route("/grades", func(r chi.Router) {
			r.Get("/my-grades/{courseID}", h.handleMyGrades)
			r.Get("/columns/{courseID}", h.handleListColumns)
			r.With(requireRole(model.UserRoleInstructor, model.UserRoleAdmin)).Group(func(r chi.Router) {
				r.Post("/columns", h.handleCreateColumn)
				r.Patch("/columns/{courseID}/{columnID}", h.handleUpdateColumn)
				r.Delete("/columns/{courseID}/{columnID}", h.handleDeleteColumn)
				r.Post("/{courseID}/{studentID}/{columnID}", h.handleUpsertGrade)
				r.Get("/grade-center/{courseID}", h.handleGradeCenter)
				r.Get("/history/{courseID}/{studentID}", h.handleGradeHistory)
				r.Get("/statistics/{courseID}/{columnID}", h.handleColumnStatistics)
				r.Get("/export/{courseID}", h.handleExportGradebook)
			})
		})

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/{courseID}", h.handleListQuizzes)
			r.Get("/{courseID}/{quizID}", h.handleGetQuiz)
			r.Post("/{courseID}/{quizID}/start", h.handleStartAttempt)
			r.Post("/{courseID}/{quizID}/attempts/{attemptID}/submit", h.handleSubmitAttempt)
			r.With(requireRole(model.UserRoleInstructor, model.UserRoleAdmin)).Group(func(r chi.Router) {
				r.Post("/", h.handleCreateQuiz)
				r.Post("/{courseID}/{quizID}/publish", h.handlePublishQuiz)
				r.Post("/{courseID}/{quizID}/close", h.handleCloseQuiz)
				r.Get("/{courseID}/{quizID}/statistics", h.handleQuizStatistics)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Post("/users", h.handleCreateUser)
			r.Get("/users", h.handleListUsers)
			r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
		})
	})
}

// urlID parses a numeric chi URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, apperr.NewValidationError(name, "must be a numeric id")
	}
	return id, nil
}

// decodeBody decodes and validates a JSON request body.
func (h *Handler) decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.NewValidationError("body", "malformed JSON: "+err.Error())
	}
	if err := h.validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			fe := invalid[0]
			return apperr.NewValidationError(fe.Field(), "failed on the '"+fe.Tag()+"' rule")
		}
		return apperr.NewValidationError("body", err.Error())
	}
	return nil
}

// canManageCourse reports whether the user owns the course or is an admin.
func (h *Handler) canManageCourse(u *model.User, courseID int64) (bool, error) {
	if u.Role == model.UserRoleAdmin {
		return true, nil
	}
	course, err := h.store.GetCourse(courseID)
	if err != nil {
		return false, err
	}
	return course.InstructorID == u.ID, nil
}

// requireCourseManager resolves the caller and checks course ownership.
func (h *Handler) requireCourseManager(r *http.Request, courseID int64) (*model.User, error) {
	u := model.UserFromContext(r.Context())
	if u == nil {
		return nil, apperr.ErrUnauthorized
	}
	ok, err := h.canManageCourse(u, courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrForbidden
	}
	return u, nil
}

// requireCourseMember allows enrolled students as well as the course
// instructor and admins.
func (h *Handler) requireCourseMember(r *http.Request, courseID int64) (*model.User, error) {
	u := model.UserFromContext(r.Context())
	if u == nil {
		return nil, apperr.ErrUnauthorized
	}
	ok, err := h.canManageCourse(u, courseID)
	if err != nil {
		return nil, err
	}
	if ok {
		return u, nil
	}
	enrolled, err := h.store.IsEnrolled(courseID, u.ID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperr.ErrForbidden
	}
	return u, nil
}
