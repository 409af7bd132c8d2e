package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/i18n"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/store"
)

type testEnv struct {
	store  *store.Store
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	r := chi.NewRouter()
	New(s).Routes(r)
	return &testEnv{store: s, router: r}
}

func (e *testEnv) createUser(t *testing.T, username string, role model.UserRole) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id, err := e.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  username,
		Email:        username + "@example.edu",
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return id
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	token, err := e.store.CreateAuthToken(userID)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", model.UserRoleInstructor)

	rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "secret-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decodeJSON(t, rec, &resp)
	if resp.Token == "" {
		t.Error("login returned empty token")
	}
	if resp.User.Username != "alice" {
		t.Errorf("login user = %q, want alice", resp.User.Username)
	}

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/courses/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/courses/", "bogus-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

// seedCourse creates an instructor-owned course with one enrolled student and
// returns (courseID, instructorToken, studentID, studentToken).
func seedCourse(t *testing.T, env *testEnv) (int64, string, int64, string) {
	t.Helper()
	instructorID := env.createUser(t, "teach", model.UserRoleInstructor)
	studentID := env.createUser(t, "student", model.UserRoleStudent)
	instructorToken := env.token(t, instructorID)
	studentToken := env.token(t, studentID)

	rec := env.do(t, http.MethodPost, "/courses/", instructorToken, map[string]any{
		"title": "Intro to Go", "code": "GO101",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create course status = %d: %s", rec.Code, rec.Body.String())
	}
	var course model.Course
	decodeJSON(t, rec, &course)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", course.ID), instructorToken, map[string]any{
		"student_id": studentID,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("enroll status = %d: %s", rec.Code, rec.Body.String())
	}
	return course.ID, instructorToken, studentID, studentToken
}

func TestGradeFlow(t *testing.T) {
	env := newTestEnv(t)
	courseID, instructorToken, studentID, studentToken := seedCourse(t, env)

	rec := env.do(t, http.MethodPost, "/grades/columns", instructorToken, map[string]any{
		"course_id": courseID, "name": "Midterm", "category": "exam", "points": 100,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create column status = %d: %s", rec.Code, rec.Body.String())
	}
	var col model.GradeColumn
	decodeJSON(t, rec, &col)
	if !col.IncludeInCalc {
		t.Error("column should default to included in calculations")
	}

	// Students cannot write grades.
	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/grades/%d/%d/%d", courseID, studentID, col.ID), studentToken,
		map[string]any{"grade": 100})
	if rec.Code != http.StatusForbidden {
		t.Errorf("student grade write status = %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/grades/%d/%d/%d", courseID, studentID, col.ID), instructorToken,
		map[string]any{"grade": 85})
	if rec.Code != http.StatusOK {
		t.Fatalf("grade write status = %d: %s", rec.Code, rec.Body.String())
	}
	var graded struct {
		Entry  model.GradeEntry  `json:"entry"`
		Record model.GradeRecord `json:"record"`
	}
	decodeJSON(t, rec, &graded)
	if graded.Entry.LetterGrade != "B" {
		t.Errorf("letter grade = %q, want B", graded.Entry.LetterGrade)
	}
	if graded.Record.OverallPercentage != 85 {
		t.Errorf("overall percentage = %v, want 85", graded.Record.OverallPercentage)
	}

	// Student sees their own grades.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/grades/my-grades/%d", courseID), studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("my-grades status = %d: %s", rec.Code, rec.Body.String())
	}
	var mine struct {
		Entries []model.GradeEntry `json:"entries"`
		Record  *model.GradeRecord `json:"record"`
	}
	decodeJSON(t, rec, &mine)
	if len(mine.Entries) != 1 || mine.Record == nil {
		t.Fatalf("my-grades = %d entries, record %v", len(mine.Entries), mine.Record)
	}

	// Grading an unenrolled student is rejected.
	outsiderID := env.createUser(t, "outsider", model.UserRoleStudent)
	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/grades/%d/%d/%d", courseID, outsiderID, col.ID), instructorToken,
		map[string]any{"grade": 50})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unenrolled grade write status = %d, want 400", rec.Code)
	}
}

func TestColumnStatisticsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	courseID, instructorToken, studentID, _ := seedCourse(t, env)

	rec := env.do(t, http.MethodPost, "/grades/columns", instructorToken, map[string]any{
		"course_id": courseID, "name": "Quiz 1", "points": 10,
	})
	var col model.GradeColumn
	decodeJSON(t, rec, &col)

	// No grades yet: statistics is null.
	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/grades/statistics/%d/%d", courseID, col.ID), instructorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("statistics status = %d: %s", rec.Code, rec.Body.String())
	}
	var stats struct {
		Statistics *model.ColumnStatistics `json:"statistics"`
	}
	decodeJSON(t, rec, &stats)
	if stats.Statistics != nil {
		t.Errorf("statistics = %+v, want null with no grades", stats.Statistics)
	}

	env.do(t, http.MethodPost,
		fmt.Sprintf("/grades/%d/%d/%d", courseID, studentID, col.ID), instructorToken,
		map[string]any{"grade": 8})

	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/grades/statistics/%d/%d", courseID, col.ID), instructorToken, nil)
	decodeJSON(t, rec, &stats)
	if stats.Statistics == nil || stats.Statistics.Count != 1 || stats.Statistics.Mean != 8 {
		t.Errorf("statistics = %+v, want count 1 mean 8", stats.Statistics)
	}
}

func TestColumnValidation(t *testing.T) {
	env := newTestEnv(t)
	courseID, instructorToken, _, _ := seedCourse(t, env)

	rec := env.do(t, http.MethodPost, "/grades/columns", instructorToken, map[string]any{
		"course_id": courseID, "name": "Broken", "points": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero points status = %d, want 400", rec.Code)
	}
}

func TestQuizLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	courseID, instructorToken, _, studentToken := seedCourse(t, env)

	rec := env.do(t, http.MethodPost, "/quizzes/", instructorToken, map[string]any{
		"course_id":    courseID,
		"title":        "Week 1 Quiz",
		"max_attempts": 2,
		"questions": []map[string]any{
			{
				"kind": "multiple_choice", "prompt": "Pick C", "points": 10,
				"options": []string{"A", "B", "C"}, "correct_option_index": 2,
			},
			{
				"kind": "true_false", "prompt": "Go has generics", "points": 5,
				"correct_answer": true,
			},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quiz status = %d: %s", rec.Code, rec.Body.String())
	}
	var quiz model.Quiz
	decodeJSON(t, rec, &quiz)
	if quiz.TotalPoints != 15 {
		t.Errorf("total points = %v, want 15", quiz.TotalPoints)
	}

	// Draft quizzes are invisible to students.
	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/quizzes/%d/%d", courseID, quiz.ID), studentToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft quiz for student status = %d, want 404", rec.Code)
	}

	// Starting a draft quiz is rejected.
	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/quizzes/%d/%d/start", courseID, quiz.ID), studentToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("start draft status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/quizzes/%d/%d/publish", courseID, quiz.ID), instructorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d: %s", rec.Code, rec.Body.String())
	}

	// Published quiz is visible but the answer key is stripped.
	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/quizzes/%d/%d", courseID, quiz.ID), studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get published quiz status = %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "correct_option_index") {
		t.Error("student quiz view leaked the answer key")
	}

	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/quizzes/%d/%d/start", courseID, quiz.ID), studentToken, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	var started struct {
		Attempt model.QuizAttempt `json:"attempt"`
		Quiz    model.Quiz        `json:"quiz"`
	}
	decodeJSON(t, rec, &started)
	if started.Attempt.AttemptNumber != 1 {
		t.Errorf("attempt number = %d, want 1", started.Attempt.AttemptNumber)
	}

	answers := map[string]any{}
	for _, q := range started.Quiz.Questions {
		switch q.Kind {
		case model.QuestionMultipleChoice:
			answers[fmt.Sprint(q.ID)] = 2
		case model.QuestionTrueFalse:
			answers[fmt.Sprint(q.ID)] = false
		}
	}

	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/quizzes/%d/%d/attempts/%d/submit", courseID, quiz.ID, started.Attempt.ID),
		studentToken, map[string]any{"answers": answers})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	var gradedAttempt model.QuizAttempt
	decodeJSON(t, rec, &gradedAttempt)
	if gradedAttempt.Score != 10 {
		t.Errorf("score = %v, want 10 (correct MC, wrong TF)", gradedAttempt.Score)
	}
	if !gradedAttempt.AutoGraded || !gradedAttempt.IsSubmitted {
		t.Error("attempt should be submitted and auto graded")
	}

	// Double submit is rejected.
	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/quizzes/%d/%d/attempts/%d/submit", courseID, quiz.ID, started.Attempt.ID),
		studentToken, map[string]any{"answers": answers})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("double submit status = %d, want 400", rec.Code)
	}

	// Only the attempt owner may submit.
	otherID := env.createUser(t, "other", model.UserRoleStudent)
	if err := env.store.EnrollStudent(courseID, otherID); err != nil {
		t.Fatalf("enroll other: %v", err)
	}
	rec = env.do(t, http.MethodPost,
		fmt.Sprintf("/quizzes/%d/%d/attempts/%d/submit", courseID, quiz.ID, started.Attempt.ID),
		env.token(t, otherID), map[string]any{"answers": answers})
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign submit status = %d, want 403", rec.Code)
	}

	// Statistics over submitted attempts.
	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/quizzes/%d/%d/statistics", courseID, quiz.ID), instructorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quiz statistics status = %d: %s", rec.Code, rec.Body.String())
	}
	var qs model.QuizStatistics
	decodeJSON(t, rec, &qs)
	if qs.Students != 1 || qs.MeanScore != 10 {
		t.Errorf("quiz statistics = %+v, want 1 student mean 10", qs)
	}
}

func TestQuizValidation(t *testing.T) {
	env := newTestEnv(t)
	courseID, instructorToken, _, _ := seedCourse(t, env)

	// Multiple choice without a key index.
	rec := env.do(t, http.MethodPost, "/quizzes/", instructorToken, map[string]any{
		"course_id": courseID, "title": "Broken", "max_attempts": 1,
		"questions": []map[string]any{
			{"kind": "multiple_choice", "prompt": "?", "points": 5, "options": []string{"A", "B"}},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing key status = %d, want 400", rec.Code)
	}

	// Short answer without accepted answers.
	rec = env.do(t, http.MethodPost, "/quizzes/", instructorToken, map[string]any{
		"course_id": courseID, "title": "Broken", "max_attempts": 1,
		"questions": []map[string]any{
			{"kind": "short_answer", "prompt": "?", "points": 5},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing accepted answers status = %d, want 400", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	courseID, instructorToken, studentID, _ := seedCourse(t, env)

	rec := env.do(t, http.MethodPost, "/grades/columns", instructorToken, map[string]any{
		"course_id": courseID, "name": "Final", "points": 100,
	})
	var col model.GradeColumn
	decodeJSON(t, rec, &col)
	env.do(t, http.MethodPost,
		fmt.Sprintf("/grades/%d/%d/%d", courseID, studentID, col.ID), instructorToken,
		map[string]any{"grade": 92})

	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/grades/export/%d", courseID), instructorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("export content type = %q, want text/csv", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Final") || !strings.Contains(body, "92") {
		t.Errorf("csv export missing data: %q", body)
	}

	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/grades/export/%d?format=xlsx", courseID), instructorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("xlsx content type = %q", ct)
	}

	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/grades/export/%d?format=pdf", courseID), instructorToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", rec.Code)
	}
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.createUser(t, "root", model.UserRoleAdmin)
	adminToken := env.token(t, adminID)
	instructorID := env.createUser(t, "teach", model.UserRoleInstructor)
	instructorToken := env.token(t, instructorID)

	rec := env.do(t, http.MethodPost, "/admin/users", instructorToken, map[string]any{
		"username": "bob", "password": "secret-password", "role": "student",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin create user status = %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/admin/users", adminToken, map[string]any{
		"username": "bob", "password": "secret-password", "role": "student",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d: %s", rec.Code, rec.Body.String())
	}
	var user model.User
	decodeJSON(t, rec, &user)
	if user.Role != model.UserRoleStudent || !user.Active {
		t.Errorf("created user = %+v, want active student", user)
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/admin/users/%d/toggle", user.ID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rec.Code, rec.Body.String())
	}
	decodeJSON(t, rec, &user)
	if user.Active {
		t.Error("user should be inactive after toggle")
	}

	// Weak passwords are rejected.
	rec = env.do(t, http.MethodPost, "/admin/users", adminToken, map[string]any{
		"username": "eve", "password": "short", "role": "student",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("weak password status = %d, want 400", rec.Code)
	}
}
