package store

import (
	"database/sql"
	"time"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

// CreateCourse inserts a course.
func (s *Store) CreateCourse(c model.Course) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO courses (title, code, instructor_id, created_at) VALUES (?, ?, ?, ?)`,
		c.Title, c.Code, c.InstructorID, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetCourse returns a course by ID.
func (s *Store) GetCourse(id int64) (model.Course, error) {
	var c model.Course
	err := s.db.QueryRow(
		`SELECT id, title, code, instructor_id, created_at FROM courses WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.Code, &c.InstructorID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, apperr.ErrNotFound
	}
	return c, err
}

// ListCourses returns all courses.
func (s *Store) ListCourses() ([]model.Course, error) {
	rows, err := s.db.Query(`SELECT id, title, code, instructor_id, created_at FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Code, &c.InstructorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// EnrollStudent adds a student to a course. Enrolling twice is a no-op.
func (s *Store) EnrollStudent(courseID, studentID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO enrollments (course_id, student_id, enrolled_at) VALUES (?, ?, ?)
		 ON CONFLICT(course_id, student_id) DO NOTHING`,
		courseID, studentID, time.Now(),
	)
	return err
}

// IsEnrolled reports whether the student is enrolled in the course.
func (s *Store) IsEnrolled(courseID, studentID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND student_id = ?`,
		courseID, studentID,
	).Scan(&count)
	return count > 0, err
}

// Roster returns the enrolled students of a course in enrollment order.
func (s *Store) Roster(courseID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.username, u.display_name, u.email, u.password_hash, u.role, u.active, u.created_at
		 FROM enrollments e JOIN users u ON u.id = e.student_id
		 WHERE e.course_id = ? ORDER BY e.id`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, u)
	}
	return students, rows.Err()
}

// CreateAnnouncement posts a course announcement.
func (s *Store) CreateAnnouncement(a model.Announcement) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO announcements (course_id, title, body, posted_by, posted_at) VALUES (?, ?, ?, ?, ?)`,
		a.CourseID, a.Title, a.Body, a.PostedBy, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAnnouncements returns a course's announcements, newest first.
func (s *Store) ListAnnouncements(courseID int64) ([]model.Announcement, error) {
	rows, err := s.db.Query(
		`SELECT id, course_id, title, body, posted_by, posted_at
		 FROM announcements WHERE course_id = ? ORDER BY id DESC`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var anns []model.Announcement
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Body, &a.PostedBy, &a.PostedAt); err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}

// DeleteAnnouncement removes an announcement.
func (s *Store) DeleteAnnouncement(courseID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM announcements WHERE id = ? AND course_id = ?`, id, courseID)
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
	return nil
}

// CreateAssignment inserts an assignment.
func (s *Store) CreateAssignment(a model.Assignment) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO assignments (course_id, title, description, points, due_at, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.CourseID, a.Title, a.Description, a.Points, a.DueAt, a.CreatedBy, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAssignment returns an assignment scoped to a course.
func (s *Store) GetAssignment(courseID, id int64) (model.Assignment, error) {
	var a model.Assignment
	err := s.db.QueryRow(
		`SELECT id, course_id, title, description, points, due_at, created_by, created_at
		 FROM assignments WHERE id = ? AND course_id = ?`, id, courseID,
	).Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.Points, &a.DueAt, &a.CreatedBy, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, apperr.ErrNotFound
	}
	return a, err
}

// ListAssignments returns a course's assignments.
func (s *Store) ListAssignments(courseID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT id, course_id, title, description, points, due_at, created_by, created_at
		 FROM assignments WHERE course_id = ? ORDER BY id`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.Points, &a.DueAt, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
