package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

const authTokenTTL = 24 * time.Hour

// CreateAuthToken issues a new opaque bearer token for a user.
func (s *Store) CreateAuthToken(userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO auth_tokens (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, now, now.Add(authTokenTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetAuthToken returns the token record, or nil when unknown or expired.
func (s *Store) GetAuthToken(token string) (*model.AuthToken, error) {
	var t model.AuthToken
	err := s.db.QueryRow(
		`SELECT id, user_id, created_at, expires_at FROM auth_tokens WHERE id = ?`, token,
	).Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(t.ExpiresAt) {
		_ = s.DeleteAuthToken(token)
		return nil, nil
	}
	return &t, nil
}

// DeleteAuthToken revokes a token.
func (s *Store) DeleteAuthToken(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens WHERE id = ?`, token)
	return err
}

// CleanupExpiredTokens removes all expired tokens.
func (s *Store) CleanupExpiredTokens() error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens WHERE expires_at < ?`, time.Now())
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
