package store

import (
	"database/sql"
)

// SetSetting upserts a key-value pair in the settings table.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetSetting returns the value for a settings key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// InstanceInfo holds the deployment identity stored in settings.
type InstanceInfo struct {
	Institution string
	Term        string
}

// SetInstanceInfo stores the deployment identity.
func (s *Store) SetInstanceInfo(info InstanceInfo) error {
	pairs := []struct{ k, v string }{
		{"institution", info.Institution},
		{"term", info.Term},
	}
	for _, p := range pairs {
		if err := s.SetSetting(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetInstanceInfo reads the deployment identity from settings.
func (s *Store) GetInstanceInfo() (InstanceInfo, error) {
	var info InstanceInfo
	var err error
	if info.Institution, err = s.GetSetting("institution"); err != nil {
		return info, err
	}
	if info.Term, err = s.GetSetting("term"); err != nil {
		return info, err
	}
	return info, nil
}
