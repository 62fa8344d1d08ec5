// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/db"
	"github.com/danielhkuo/cleanplate/models"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema.
// The single connection keeps the in-memory database alive for the test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxIdleConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                3318,
		DatabaseURL:         ":memory:",
		DatabaseType:        "sqlite",
		ModeratorKeySalt:    "test-moderator-salt",
		Environment:         "development",
		LLMProvider:         cliparse.ProviderStub,
		MaxTokens:           500,
		RetryAttempts:       3,
		RetryDelay:          time.Millisecond,
		CallPause:           0,
		RevealWorkers:       1,
		MaxInflightCalls:    4,
		PhotoPolicy:         models.PhotoPolicyReplace,
		MaxPhotoBytes:       1 << 20,
		PollIntervalSeconds: models.DefaultPollIntervalSeconds,
		DefaultItems:        append([]string(nil), models.DefaultItems...),
	}
}

// CreateTestRoom inserts an active room and returns its ID, moderator key and invite code
func CreateTestRoom(t *testing.T, conn *sql.DB, cfg cliparse.Config) (roomID, moderatorKey, inviteCode string) {
	t.Helper()

	roomID = auth.NewRoomID()
	moderatorKey = auth.GenerateModeratorKey(roomID, cfg.ModeratorKeySalt)
	inviteCode, _ = auth.GenerateInviteCode()

	_, err := conn.Exec(`
		INSERT INTO room (id, name, moderator_name, invite_code, is_active, poll_interval_seconds, created_at)
		VALUES ($1, 'Test Room', 'Moderator', $2, TRUE, $3, $4)
	`, roomID, inviteCode, models.DefaultPollIntervalSeconds, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test room: %v", err)
	}

	return roomID, moderatorKey, inviteCode
}

// AddTestParticipant adds a participant to a room and returns the participant ID
func AddTestParticipant(t *testing.T, conn *sql.DB, roomID, name string) string {
	t.Helper()

	participantID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO participant (id, room_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, participantID, roomID, name, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}

	return participantID
}

// AddTestPhoto stores a photo of the given type for a participant
func AddTestPhoto(t *testing.T, conn *sql.DB, participantID, photoType, url string) string {
	t.Helper()

	photoID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO photo (id, participant_id, type, url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, photoID, participantID, photoType, url, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test photo: %v", err)
	}

	return photoID
}

// AddTestItem adds an item to a room and returns the item ID
func AddTestItem(t *testing.T, conn *sql.DB, roomID, name string) string {
	t.Helper()

	itemID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO item (id, room_id, name, sort_order)
		VALUES ($1, $2, $3, 0)
	`, itemID, roomID, name)
	if err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}

	return itemID
}

// AddTestScore records a manual score
func AddTestScore(t *testing.T, conn *sql.DB, participantID, itemID string, value models.Tier) string {
	t.Helper()

	scoreID, _ := auth.GenerateID(12)
	now := time.Now()
	_, err := conn.Exec(`
		INSERT INTO score (id, participant_id, item_id, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, scoreID, participantID, itemID, string(value), now, now)
	if err != nil {
		t.Fatalf("Failed to create test score: %v", err)
	}

	return scoreID
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
