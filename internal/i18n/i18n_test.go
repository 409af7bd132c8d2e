package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Academy" {
		t.Errorf("T(AppTitle) = %q, want 'Academy'", got)
	}

	got = T(ctx, "LoginError")
	if got != "Invalid username or password." {
		t.Errorf("T(LoginError) = %q, want 'Invalid username or password.'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "AppTitle")
	if got != "Академия" {
		t.Errorf("T(AppTitle) = %q, want 'Академия'", got)
	}

	got = T(ctx, "LoginError")
	if got != "Неверное имя пользователя или пароль." {
		t.Errorf("T(LoginError) = %q, want russian login error", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "StudentsEnrolled", 1)
	if got1 != "1 student enrolled." {
		t.Errorf("Tp(StudentsEnrolled, 1) = %q, want '1 student enrolled.'", got1)
	}

	got5 := Tp(ctx, "StudentsEnrolled", 5)
	if got5 != "5 students enrolled." {
		t.Errorf("Tp(StudentsEnrolled, 5) = %q, want '5 students enrolled.'", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "AttemptN", map[string]any{"Number": 2})
	if got != "Attempt #2" {
		t.Errorf("Td(AttemptN, Number=2) = %q, want 'Attempt #2'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
