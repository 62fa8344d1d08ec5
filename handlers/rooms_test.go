// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/testutil"
)

// serve runs handler against req after filling in path values.
func serve(handler http.HandlerFunc, req *http.Request, pathValues map[string]string) *httptest.ResponseRecorder {
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestCreateRoom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewRoomHandler(db, cfg)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.CreateRoomResponse)
	}{
		{
			name: "valid room creation",
			requestBody: models.CreateRoomRequest{
				Name:          "  Friday Burgers ",
				ModeratorName: "Ana",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreateRoomResponse) {
				if resp.RoomID == "" || resp.ParticipantID == "" {
					t.Fatalf("Expected room and participant IDs, got %+v", resp)
				}
				if len(resp.InviteCode) != auth.InviteCodeLength {
					t.Errorf("Expected %d-char invite code, got %q", auth.InviteCodeLength, resp.InviteCode)
				}
				if err := auth.ValidateModeratorKey(resp.RoomID, resp.ModeratorKey, cfg.ModeratorKeySalt); err != nil {
					t.Errorf("Moderator key does not validate: %v", err)
				}

				var name string
				var pollInterval int
				err := db.QueryRow("SELECT name, poll_interval_seconds FROM room WHERE id = $1", resp.RoomID).Scan(&name, &pollInterval)
				if err != nil {
					t.Fatalf("Failed to query room: %v", err)
				}
				if name != "Friday Burgers" {
					t.Errorf("Expected trimmed name, got %q", name)
				}
				if pollInterval != cfg.PollIntervalSeconds {
					t.Errorf("Expected poll interval %d, got %d", cfg.PollIntervalSeconds, pollInterval)
				}

				var items int
				db.QueryRow("SELECT COUNT(*) FROM item WHERE room_id = $1", resp.RoomID).Scan(&items)
				if items != len(cfg.DefaultItems) {
					t.Errorf("Expected %d default items, got %d", len(cfg.DefaultItems), items)
				}

				var moderator string
				db.QueryRow("SELECT name FROM participant WHERE id = $1", resp.ParticipantID).Scan(&moderator)
				if moderator != "Ana" {
					t.Errorf("Expected moderator to join as participant, got %q", moderator)
				}
			},
		},
		{
			name:           "missing room name",
			requestBody:    models.CreateRoomRequest{ModeratorName: "Ana"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank moderator name",
			requestBody:    models.CreateRoomRequest{Name: "Room", ModeratorName: "   "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, _ = json.Marshal(tt.requestBody)
			}

			req := httptest.NewRequest("POST", "/rooms", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := serve(handler.CreateRoom, req, nil)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var resp models.CreateRoomResponse
				testutil.AssertJSON(t, w, &resp)
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestCreateRoom_LinksModeratorDevice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewRoomHandler(db, testutil.GetTestConfig())

	req := testutil.MakeRequest("POST", "/rooms",
		models.CreateRoomRequest{Name: "Room", ModeratorName: "Ana"},
		map[string]string{"X-Device-UUID": "device-1"})
	w := serve(handler.CreateRoom, req, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreateRoomResponse
	testutil.AssertJSON(t, w, &resp)

	var role, participantID string
	err := db.QueryRow(`
		SELECT dr.role, dr.participant_id
		FROM device_room dr
		JOIN device d ON d.id = dr.device_id
		WHERE d.device_uuid = $1 AND dr.room_id = $2
	`, "device-1", resp.RoomID).Scan(&role, &participantID)
	if err != nil {
		t.Fatalf("Expected device link: %v", err)
	}
	if role != models.RoleModerator {
		t.Errorf("Expected role %q, got %q", models.RoleModerator, role)
	}
	if participantID != resp.ParticipantID {
		t.Errorf("Expected participant %s, got %s", resp.ParticipantID, participantID)
	}
}

func TestGetRoom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewRoomHandler(db, cfg)

	roomID, _, _ := testutil.CreateTestRoom(t, db, cfg)
	ana := testutil.AddTestParticipant(t, db, roomID, "Ana")
	testutil.AddTestPhoto(t, db, ana, models.PhotoInitial, "https://example.com/a.jpg")
	item := testutil.AddTestItem(t, db, roomID, "Bacon")
	testutil.AddTestScore(t, db, ana, item, models.TierDouble)

	t.Run("existing room", func(t *testing.T) {
		w := serve(handler.GetRoom, httptest.NewRequest("GET", "/rooms/"+roomID, nil), map[string]string{"id": roomID})
		testutil.AssertStatus(t, w, http.StatusOK)

		var details models.RoomDetails
		testutil.AssertJSON(t, w, &details)
		if details.Room.ID != roomID {
			t.Errorf("Expected room %s, got %s", roomID, details.Room.ID)
		}
		if len(details.Participants) != 1 {
			t.Fatalf("Expected 1 participant, got %d", len(details.Participants))
		}
		p := details.Participants[0]
		if len(p.Photos) != 1 || len(p.Scores) != 1 {
			t.Errorf("Expected 1 photo and 1 score, got %d and %d", len(p.Photos), len(p.Scores))
		}
		if len(details.Items) != 1 || details.Items[0].Name != "Bacon" {
			t.Errorf("Expected the Bacon item, got %+v", details.Items)
		}
	})

	t.Run("cheat name is not exposed", func(t *testing.T) {
		db.Exec("UPDATE room SET cheat_name = 'Ana' WHERE id = $1", roomID)
		w := serve(handler.GetRoom, httptest.NewRequest("GET", "/rooms/"+roomID, nil), map[string]string{"id": roomID})
		testutil.AssertStatus(t, w, http.StatusOK)
		if strings.Contains(w.Body.String(), "cheat") {
			t.Errorf("Response leaks the cheat name: %s", w.Body.String())
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		w := serve(handler.GetRoom, httptest.NewRequest("GET", "/rooms/missing", nil), map[string]string{"id": "missing"})
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestGetRoomByCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewRoomHandler(db, cfg)

	roomID, _, code := testutil.CreateTestRoom(t, db, cfg)

	w := serve(handler.GetRoomByCode, httptest.NewRequest("GET", "/invites/x", nil),
		map[string]string{"code": " " + strings.ToLower(code) + " "})
	testutil.AssertStatus(t, w, http.StatusOK)

	var details models.RoomDetails
	testutil.AssertJSON(t, w, &details)
	if details.Room.ID != roomID {
		t.Errorf("Expected room %s, got %s", roomID, details.Room.ID)
	}

	w = serve(handler.GetRoomByCode, httptest.NewRequest("GET", "/invites/x", nil),
		map[string]string{"code": "ZZZZZZZZ"})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestValidateInvite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewRoomHandler(db, cfg)

	_, _, activeCode := testutil.CreateTestRoom(t, db, cfg)
	closedID, _, closedCode := testutil.CreateTestRoom(t, db, cfg)
	db.Exec("UPDATE room SET is_active = FALSE WHERE id = $1", closedID)

	tests := []struct {
		name           string
		code           string
		expectedStatus int
	}{
		{"active room", activeCode, http.StatusOK},
		{"lowercase code", strings.ToLower(activeCode), http.StatusOK},
		{"wrong length", "ABC", http.StatusBadRequest},
		{"unknown code", "ZZZZZZZZ", http.StatusNotFound},
		{"inactive room", closedCode, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handler.ValidateInvite, httptest.NewRequest("GET", "/invites/x/validate", nil),
				map[string]string{"code": tt.code})
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var summary models.RoomSummary
				testutil.AssertJSON(t, w, &summary)
				if summary.InviteCode != activeCode || !summary.IsActive {
					t.Errorf("Unexpected summary %+v", summary)
				}
			}
		})
	}
}

func TestUpdateSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewRoomHandler(db, cfg)

	roomID, moderatorKey, _ := testutil.CreateTestRoom(t, db, cfg)
	intPtr := func(v int) *int { return &v }
	strPtr := func(v string) *string { return &v }

	tests := []struct {
		name           string
		key            string
		body           models.UpdateSettingsRequest
		expectedStatus int
	}{
		{"missing moderator key", "", models.UpdateSettingsRequest{CheatName: strPtr("Ana")}, http.StatusUnauthorized},
		{"wrong moderator key", "nope", models.UpdateSettingsRequest{CheatName: strPtr("Ana")}, http.StatusUnauthorized},
		{"zero poll interval", moderatorKey, models.UpdateSettingsRequest{PollIntervalSeconds: intPtr(0)}, http.StatusBadRequest},
		{"poll interval too long", moderatorKey, models.UpdateSettingsRequest{PollIntervalSeconds: intPtr(61)}, http.StatusBadRequest},
		{"cheat name too long", moderatorKey, models.UpdateSettingsRequest{CheatName: strPtr(strings.Repeat("x", 51))}, http.StatusBadRequest},
		{"valid update", moderatorKey, models.UpdateSettingsRequest{CheatName: strPtr(" Bia "), PollIntervalSeconds: intPtr(10)}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("PUT", "/rooms/"+roomID+"/settings", tt.body,
				map[string]string{"X-Moderator-Key": tt.key})
			w := serve(handler.UpdateSettings, req, map[string]string{"id": roomID})
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	var cheat string
	var interval int
	db.QueryRow("SELECT cheat_name, poll_interval_seconds FROM room WHERE id = $1", roomID).Scan(&cheat, &interval)
	if cheat != "Bia" {
		t.Errorf("Expected cheat name 'Bia', got %q", cheat)
	}
	if interval != 10 {
		t.Errorf("Expected poll interval 10, got %d", interval)
	}
}

func TestCleanup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewRoomHandler(db, cfg)

	keepID, keepKey, _ := testutil.CreateTestRoom(t, db, cfg)
	keeper := testutil.AddTestParticipant(t, db, keepID, "Ana")
	testutil.AddTestPhoto(t, db, keeper, models.PhotoInitial, "https://example.com/keep.jpg")

	for _, name := range []string{"Bia", "Caio"} {
		otherID, _, _ := testutil.CreateTestRoom(t, db, cfg)
		p := testutil.AddTestParticipant(t, db, otherID, name)
		testutil.AddTestPhoto(t, db, p, models.PhotoInitial, "https://example.com/x.jpg")
		item := testutil.AddTestItem(t, db, otherID, "Ovo")
		testutil.AddTestScore(t, db, p, item, models.TierSimple)
	}

	t.Run("requires the current room's key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/rooms/cleanup",
			models.CleanupRequest{CurrentRoomID: keepID},
			map[string]string{"X-Moderator-Key": "wrong"})
		w := serve(handler.Cleanup, req, nil)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("missing current room", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/rooms/cleanup", models.CleanupRequest{}, nil)
		w := serve(handler.Cleanup, req, nil)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("removes every other room", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/rooms/cleanup",
			models.CleanupRequest{CurrentRoomID: keepID},
			map[string]string{"X-Moderator-Key": keepKey})
		w := serve(handler.Cleanup, req, nil)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.CleanupResponse
		testutil.AssertJSON(t, w, &resp)
		want := models.CleanupStats{RemovedRooms: 2, RemovedParticipants: 2, RemovedPhotos: 2, RemovedScores: 2}
		if resp.Stats != want {
			t.Errorf("Expected stats %+v, got %+v", want, resp.Stats)
		}

		var rooms, photos int
		db.QueryRow("SELECT COUNT(*) FROM room").Scan(&rooms)
		db.QueryRow("SELECT COUNT(*) FROM photo").Scan(&photos)
		if rooms != 1 || photos != 1 {
			t.Errorf("Expected only the kept room and its photo, got %d rooms and %d photos", rooms, photos)
		}
	})
}
