// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/models"
)

// SetupTestDB creates a fresh SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open(context.Background(), db.TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file::memory:",
		DatabaseType:    db.TypeSQLite,
		SessionSecret:   "test-session-secret",
		AdminKey:        "test-admin-key",
		FingerprintSalt: "test-fingerprint-salt",
		StoreTimeout:    5 * time.Second,
		GateMaxWait:     time.Hour,
		ResyncInterval:  50 * time.Millisecond,
		VoteRate:        1000,
		VoteBurst:       1000,
	}
}

// CreateTestCategory inserts a category and returns its ID
func CreateTestCategory(t *testing.T, conn *sql.DB, name string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO category (id, name, created_at) VALUES ($1, $2, $3)
	`, id, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	return id
}

// AddTestNominee adds a nominee to a category and returns its ID
func AddTestNominee(t *testing.T, conn *sql.DB, categoryID, name string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO nominee (id, category_id, name, created_at) VALUES ($1, $2, $3, $4)
	`, id, categoryID, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test nominee: %v", err)
	}
	return id
}

// InsertTestVote writes a vote row directly, bypassing the ledger, so tests
// can control timestamps
func InsertTestVote(t *testing.T, conn *sql.DB, identity models.Identity, categoryID, nomineeID string, at time.Time) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO vote (id, identity_kind, identity_value, category_id, nominee_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, identity.Kind, identity.Value, categoryID, nomineeID, at.UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
	return id
}

// CountVotes returns the number of ledger rows for a category
func CountVotes(t *testing.T, conn *sql.DB, categoryID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// SessionHeaders returns headers carrying a valid session token for userID
func SessionHeaders(t *testing.T, cfg cliparse.Config, userID string) map[string]string {
	t.Helper()

	token, err := auth.IssueSession(cfg.SessionSecret, auth.Issuer, userID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
