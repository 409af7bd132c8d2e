package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_tokens (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		instructor_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (instructor_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS enrollments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		enrolled_at DATETIME NOT NULL,
		UNIQUE (course_id, student_id),
		FOREIGN KEY (course_id) REFERENCES courses(id),
		FOREIGN KEY (student_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS announcements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		posted_by INTEGER NOT NULL,
		posted_at DATETIME NOT NULL,
		FOREIGN KEY (course_id) REFERENCES courses(id)
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		points REAL NOT NULL DEFAULT 0,
		due_at DATETIME,
		created_by INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (course_id) REFERENCES courses(id)
	);

	CREATE TABLE IF NOT EXISTS grade_columns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		assignment_id INTEGER,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		points REAL NOT NULL,
		weight REAL,
		include_in_calc INTEGER NOT NULL DEFAULT 1,
		display_order INTEGER NOT NULL DEFAULT 0,
		created_by INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (course_id) REFERENCES courses(id),
		FOREIGN KEY (assignment_id) REFERENCES assignments(id)
	);

	CREATE TABLE IF NOT EXISTS grade_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		column_id INTEGER NOT NULL,
		grade REAL NOT NULL,
		max_points REAL NOT NULL,
		percentage REAL NOT NULL,
		letter_grade TEXT NOT NULL,
		is_override INTEGER NOT NULL DEFAULT 0,
		override_reason TEXT NOT NULL DEFAULT '',
		graded_by INTEGER NOT NULL,
		graded_at DATETIME NOT NULL,
		UNIQUE (course_id, student_id, column_id),
		FOREIGN KEY (column_id) REFERENCES grade_columns(id)
	);

	CREATE TABLE IF NOT EXISTS grade_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		overall_points_earned REAL NOT NULL DEFAULT 0,
		overall_points_possible REAL NOT NULL DEFAULT 0,
		overall_percentage REAL NOT NULL DEFAULT 0,
		overall_letter_grade TEXT NOT NULL DEFAULT 'F',
		calculated_at DATETIME NOT NULL,
		UNIQUE (course_id, student_id)
	);

	CREATE TABLE IF NOT EXISTS grade_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		column_id INTEGER NOT NULL,
		old_grade REAL NOT NULL,
		new_grade REAL NOT NULL,
		changed_by INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		is_override INTEGER NOT NULL DEFAULT 0,
		changed_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		max_attempts INTEGER NOT NULL DEFAULT 1,
		passing_score REAL,
		total_points REAL NOT NULL DEFAULT 0,
		available_from DATETIME,
		available_until DATETIME,
		total_attempts INTEGER NOT NULL DEFAULT 0,
		average_score REAL NOT NULL DEFAULT 0,
		created_by INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (course_id) REFERENCES courses(id)
	);

	CREATE TABLE IF NOT EXISTS quiz_questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		prompt TEXT NOT NULL,
		points REAL NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		correct_option_index INTEGER,
		correct_bool INTEGER,
		accepted_answers TEXT NOT NULL DEFAULT '[]',
		case_sensitive INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS quiz_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		attempt_number INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		submitted_at DATETIME,
		is_submitted INTEGER NOT NULL DEFAULT 0,
		score REAL NOT NULL DEFAULT 0,
		percentage REAL NOT NULL DEFAULT 0,
		passed INTEGER,
		time_taken_minutes INTEGER NOT NULL DEFAULT 0,
		auto_graded INTEGER NOT NULL DEFAULT 0,
		UNIQUE (quiz_id, student_id, attempt_number),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS quiz_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		submitted_value TEXT NOT NULL DEFAULT '',
		is_correct INTEGER NOT NULL DEFAULT 0,
		points_earned REAL NOT NULL DEFAULT 0,
		UNIQUE (attempt_id, question_id),
		FOREIGN KEY (attempt_id) REFERENCES quiz_attempts(id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
