package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

type createCourseRequest struct {
	Title        string `json:"title" validate:"required"`
	Code         string `json:"code" validate:"required"`
	InstructorID int64  `json:"instructor_id"`
}

func (h *Handler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	caller := model.UserFromContext(r.Context())
	instructorID := caller.ID
	if req.InstructorID != 0 && req.InstructorID != caller.ID {
		// Only admins may create a course on behalf of another instructor.
		if caller.Role != model.UserRoleAdmin {
			h.respondError(w, r, apperr.ErrForbidden)
			return
		}
		instructorID = req.InstructorID
	}

	id, err := h.store.CreateCourse(model.Course{
		Title:        req.Title,
		Code:         req.Code,
		InstructorID: instructorID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	course, err := h.store.GetCourse(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slog.Info("course created", "course_id", id, "code", course.Code)
	respond(w, http.StatusCreated, course)
}

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"courses": courses})
}

type enrollRequest struct {
	StudentID int64 `json:"student_id" validate:"required"`
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	var req enrollRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	student, err := h.store.GetUserByID(req.StudentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if student == nil {
		h.respondError(w, r, apperr.ErrNotFound)
		return
	}
	if student.Role != model.UserRoleStudent {
		h.respondError(w, r, apperr.NewValidationError("student_id", "user is not a student"))
		return
	}

	if err := h.store.EnrollStudent(courseID, req.StudentID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	students, err := h.store.Roster(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"students": students})
}

type createAnnouncementRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

func (h *Handler) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	caller, err := h.requireCourseManager(r, courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req createAnnouncementRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := h.store.CreateAnnouncement(model.Announcement{
		CourseID: courseID,
		Title:    req.Title,
		Body:     req.Body,
		PostedBy: caller.ID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseMember(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	anns, err := h.store.ListAnnouncements(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"announcements": anns})
}

func (h *Handler) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	annID, err := urlID(r, "announcementID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.DeleteAnnouncement(courseID, annID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

type createAssignmentRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Points      float64    `json:"points" validate:"required,gt=0"`
	DueAt       *time.Time `json:"due_at"`
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	caller, err := h.requireCourseManager(r, courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req createAssignmentRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := h.store.CreateAssignment(model.Assignment{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		DueAt:       req.DueAt,
		CreatedBy:   caller.ID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	assignment, err := h.store.GetAssignment(courseID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, assignment)
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseMember(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	assignments, err := h.store.ListAssignments(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"assignments": assignments})
}
