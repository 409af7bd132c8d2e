package handler

import (
	"log/slog"
	"net/http"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/export"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/store"
)

type createColumnRequest struct {
	CourseID     int64    `json:"course_id" validate:"required"`
	AssignmentID *int64   `json:"assignment_id"`
	Name         string   `json:"name" validate:"required"`
	Category     string   `json:"category"`
	Points       float64  `json:"points" validate:"required,gt=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gt=0"`
	Include      *bool    `json:"include_in_calculations"`
	DisplayOrder int      `json:"display_order"`
}

func (h *Handler) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req createColumnRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	caller, err := h.requireCourseManager(r, req.CourseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if req.AssignmentID != nil {
		if _, err := h.store.GetAssignment(req.CourseID, *req.AssignmentID); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	include := true
	if req.Include != nil {
		include = *req.Include
	}

	id, err := h.store.CreateColumn(model.GradeColumn{
		CourseID:      req.CourseID,
		AssignmentID:  req.AssignmentID,
		Name:          req.Name,
		Category:      req.Category,
		Points:        req.Points,
		Weight:        req.Weight,
		IncludeInCalc: include,
		DisplayOrder:  req.DisplayOrder,
		CreatedBy:     caller.ID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	col, err := h.store.GetColumn(req.CourseID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slog.Info("grade column created", "course_id", req.CourseID, "column_id", id, "name", col.Name)
	respond(w, http.StatusCreated, col)
}

func (h *Handler) handleListColumns(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseMember(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	cols, err := h.store.ListColumns(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"columns": cols})
}

type updateColumnRequest struct {
	AssignmentID *int64   `json:"assignment_id"`
	Name         *string  `json:"name"`
	Category     *string  `json:"category"`
	Points       *float64 `json:"points" validate:"omitempty,gt=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gt=0"`
	Include      *bool    `json:"include_in_calculations"`
	DisplayOrder *int     `json:"display_order"`
}

func (h *Handler) handleUpdateColumn(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	columnID, err := urlID(r, "columnID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateColumnRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	col, err := h.store.GetColumn(courseID, columnID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if req.AssignmentID != nil {
		if _, err := h.store.GetAssignment(courseID, *req.AssignmentID); err != nil {
			h.respondError(w, r, err)
			return
		}
		col.AssignmentID = req.AssignmentID
	}
	if req.Name != nil {
		col.Name = *req.Name
	}
	if req.Category != nil {
		col.Category = *req.Category
	}
	if req.Points != nil {
		col.Points = *req.Points
	}
	if req.Weight != nil {
		col.Weight = req.Weight
	}
	if req.Include != nil {
		col.IncludeInCalc = *req.Include
	}
	if req.DisplayOrder != nil {
		col.DisplayOrder = *req.DisplayOrder
	}

	if err := h.store.UpdateColumn(col); err != nil {
		h.respondError(w, r, err)
		return
	}

	updated, err := h.store.GetColumn(courseID, columnID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	columnID, err := urlID(r, "columnID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.DeleteColumn(courseID, columnID); err != nil {
		h.respondError(w, r, err)
		return
	}
	slog.Info("grade column deleted", "course_id", courseID, "column_id", columnID)
	respond(w, http.StatusNoContent, nil)
}

type upsertGradeRequest struct {
	Grade          *float64 `json:"grade" validate:"required,gte=0"`
	IsOverride     bool     `json:"is_override"`
	OverrideReason string   `json:"override_reason"`
}

func (h *Handler) handleUpsertGrade(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	studentID, err := urlID(r, "studentID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	columnID, err := urlID(r, "columnID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	caller, err := h.requireCourseManager(r, courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req upsertGradeRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	enrolled, err := h.store.IsEnrolled(courseID, studentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !enrolled {
		h.respondError(w, r, apperr.ErrNotEnrolled)
		return
	}

	entry, record, err := h.store.UpsertGrade(courseID, studentID, columnID, caller.ID, store.GradeWrite{
		Grade:          *req.Grade,
		IsOverride:     req.IsOverride,
		OverrideReason: req.OverrideReason,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	slog.Info("grade recorded", "course_id", courseID, "student_id", studentID,
		"column_id", columnID, "grade", entry.Grade, "letter", entry.LetterGrade)
	respond(w, http.StatusOK, map[string]any{"entry": entry, "record": record})
}

func (h *Handler) handleMyGrades(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
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
		h.respondError(w, r, apperr.ErrForbidden)
		return
	}

	columns, err := h.store.ListColumns(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	entries, err := h.store.EntriesForStudent(courseID, caller.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	record, err := h.store.GetRecord(courseID, caller.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"columns": columns,
		"entries": entries,
		"record":  record,
	})
}

func (h *Handler) handleGradeCenter(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	center, err := h.store.GradeCenter(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, center)
}

func (h *Handler) handleGradeHistory(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	studentID, err := urlID(r, "studentID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	history, err := h.store.ListHistory(courseID, studentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"history": history})
}

func (h *Handler) handleColumnStatistics(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	columnID, err := urlID(r, "columnID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.store.ColumnStatistics(courseID, columnID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	// stats is null when the column has no recorded grades.
	respond(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (h *Handler) handleExportGradebook(w http.ResponseWriter, r *http.Request) {
	courseID, err := urlID(r, "courseID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.requireCourseManager(r, courseID); err != nil {
		h.respondError(w, r, err)
		return
	}

	gb, err := h.store.BuildGradebookExport(courseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="gradebook.csv"`)
		if err := export.WriteCSV(w, gb); err != nil {
			slog.Error("csv export failed", "course_id", courseID, "error", err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="gradebook.xlsx"`)
		if err := export.WriteXLSX(w, gb); err != nil {
			slog.Error("xlsx export failed", "course_id", courseID, "error", err)
		}
	default:
		h.respondError(w, r, apperr.NewValidationError("format", "must be csv or xlsx"))
	}
}
