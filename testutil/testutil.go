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

	"github.com/danielhkuo/attested-vote/attest"
	"github.com/danielhkuo/attested-vote/cliparse"
	"github.com/danielhkuo/attested-vote/db"
)

// TestAdminKey is the admin secret used by GetTestConfig
const TestAdminKey = "admin_secret_key_99999"

// Tokens accepted by TestAttestor
const (
	ValidAndroidToken = attest.DevAndroidToken
	ValidIOSToken     = attest.DevIOSToken
)

// SetupTestDB creates a fresh SQLite ledger with the full schema in a
// temporary directory. The database is closed when the test ends.
func SetupTestDB(t *testing.T) (*sql.DB, *db.Ledger) {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.SQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(ctx, conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn, db.NewLedger(conn, db.SQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3000,
		DatabaseURL:   ":memory:",
		DatabaseType:  string(db.SQLite),
		AdminKey:      TestAdminKey,
		IPHashSalt:    "test_ip_salt",
		AttestTimeout: time.Second,
		DevTokens:     true,
	}
}

// TestAttestor accepts only the development tokens for each OS
func TestAttestor() *attest.Dispatcher {
	return &attest.Dispatcher{
		Android: attest.Static{Token: ValidAndroidToken},
		IOS:     attest.Static{Token: ValidIOSToken},
		Timeout: time.Second,
	}
}

// CountRows returns the number of rows in a table
func CountRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s rows: %v", table, err)
	}
	return n
}

// CastTestVote records a vote directly in the ledger, bypassing attestation
func CastTestVote(t *testing.T, ledger *db.Ledger, deviceID, candidate, os string) {
	t.Helper()

	if _, err := ledger.CastVote(context.Background(), deviceID, candidate, os); err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
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
