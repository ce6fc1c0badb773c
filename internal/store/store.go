// Package store persists the matcher's durable state: user settings, the
// per-account tracker spreadsheet mapping, and the cached OAuth token.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Setting keys. Settings are written by the config command and read on
// every analysis.
const (
	KeyAPIKey    = "apiKey"
	KeyCVText    = "cvText"
	KeyModelName = "modelName"
)

// Store handles database operations.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Setting returns the stored value for key, or "" when unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores or replaces one setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Settings are the user-configured inputs for an analysis. Environment
// variables take precedence over stored values so a .env file works the
// same way it does for the rest of the configuration.
type Settings struct {
	APIKey    string
	CVText    string
	ModelName string
}

// Settings loads the current settings with environment overrides applied.
// GEMINI_API_KEY and GEMINI_MODEL override directly; CV_TEXT_FILE names a
// file whose contents replace the stored CV text.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	var err error

	if out.APIKey = os.Getenv("GEMINI_API_KEY"); out.APIKey == "" {
		if out.APIKey, err = s.Setting(ctx, KeyAPIKey); err != nil {
			return Settings{}, err
		}
	}

	if path := os.Getenv("CV_TEXT_FILE"); path != "" {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return Settings{}, fmt.Errorf("read cv file %s: %w", path, readErr)
		}
		out.CVText = string(data)
	} else if out.CVText, err = s.Setting(ctx, KeyCVText); err != nil {
		return Settings{}, err
	}

	if out.ModelName = os.Getenv("GEMINI_MODEL"); out.ModelName == "" {
		if out.ModelName, err = s.Setting(ctx, KeyModelName); err != nil {
			return Settings{}, err
		}
	}

	return out, nil
}

// TrackerID returns the cached spreadsheet id for an account, or "" when
// none is cached. At most one id is kept per account.
func (s *Store) TrackerID(ctx context.Context, account string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT spreadsheet_id FROM trackers WHERE account = ?", account,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get tracker id: %w", err)
	}
	return id, nil
}

// SetTrackerID caches the tracker spreadsheet id for an account,
// replacing any previous value.
func (s *Store) SetTrackerID(ctx context.Context, account, spreadsheetID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO trackers (account, spreadsheet_id, updated_at) VALUES (?, ?, ?)",
		account, spreadsheetID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set tracker id: %w", err)
	}
	return nil
}

// DeleteTrackerID drops a cached id that failed server-side verification.
func (s *Store) DeleteTrackerID(ctx context.Context, account string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trackers WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("delete tracker id: %w", err)
	}
	return nil
}

// Token returns the cached OAuth token as serialized JSON, or "" when the
// user has not logged in.
func (s *Store) Token(ctx context.Context) (string, error) {
	var tok string
	err := s.db.QueryRowContext(ctx, "SELECT token_json FROM tokens WHERE id = 1").Scan(&tok)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return tok, nil
}

// SetToken stores the serialized OAuth token, replacing any previous one.
func (s *Store) SetToken(ctx context.Context, tokenJSON string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO tokens (id, token_json, updated_at) VALUES (1, ?, ?)",
		tokenJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

// DeleteToken removes the cached token on logout.
func (s *Store) DeleteToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE id = 1")
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
