// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/store"
)

// inviteCodeAttempts bounds retries on the (unlikely) invite code collision.
const inviteCodeAttempts = 5

type RoomHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	store *store.SQLStore
}

func NewRoomHandler(db *sql.DB, cfg cliparse.Config) *RoomHandler {
	return &RoomHandler{db: db, cfg: cfg, store: store.New(db)}
}

func validateCreateRoom(req *models.CreateRoomRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.ModeratorName, validation.Required, validation.Length(1, 50)),
	)
}

// CreateRoom handles POST /rooms
// Creates the room with its default items and joins the moderator as the
// first participant.
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ModeratorName = strings.TrimSpace(req.ModeratorName)
	if err := validateCreateRoom(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	roomID := auth.NewRoomID()
	inviteCode, err := h.uniqueInviteCode()
	if err != nil {
		zap.S().Errorw("failed to generate invite code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create room")
		return
	}
	participantID, err := auth.GenerateID(12)
	if err != nil {
		zap.S().Errorw("failed to generate participant ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	if err := h.insertRoom(roomID, inviteCode, participantID, req); err != nil {
		zap.S().Errorw("failed to insert room", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	// Link device if provided
	if deviceID, err := GetOrCreateDevice(h.db, r); err != nil {
		zap.S().Warnw("failed to get/create device", "error", err)
	} else if deviceID != "" {
		if err := LinkDeviceToRoom(h.db, deviceID, roomID, models.RoleModerator, &participantID); err != nil {
			zap.S().Warnw("failed to link device to room", "error", err)
		}
	}

	zap.S().Infow("room created", "room_id", roomID, "moderator", req.ModeratorName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateRoomResponse{
		RoomID:        roomID,
		InviteCode:    inviteCode,
		ModeratorKey:  auth.GenerateModeratorKey(roomID, h.cfg.ModeratorKeySalt),
		ParticipantID: participantID,
	})
}

func (h *RoomHandler) uniqueInviteCode() (string, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		code, err := auth.GenerateInviteCode()
		if err != nil {
			return "", err
		}
		var one int
		err = h.db.QueryRow("SELECT 1 FROM room WHERE invite_code = $1", code).Scan(&one)
		if err == sql.ErrNoRows {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("no free invite code")
}

func (h *RoomHandler) insertRoom(roomID, inviteCode, participantID string, req models.CreateRoomRequest) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.Exec(`
		INSERT INTO room (id, name, moderator_name, invite_code, is_active, poll_interval_seconds, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
	`, roomID, req.Name, req.ModeratorName, inviteCode, h.cfg.PollIntervalSeconds, now)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	for i, name := range h.cfg.DefaultItems {
		itemID, err := auth.GenerateID(12)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO item (id, room_id, name, sort_order)
			VALUES ($1, $2, $3, $4)
		`, itemID, roomID, name, i)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO participant (id, room_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, participantID, roomID, req.ModeratorName, now)
	if err != nil {
		return fmt.Errorf("insert moderator: %w", err)
	}

	return tx.Commit()
}

// GetRoom handles GET /rooms/{id}
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	h.writeRoom(w, r, r.PathValue("id"))
}

// GetRoomByCode handles GET /invites/{code}
func (h *RoomHandler) GetRoomByCode(w http.ResponseWriter, r *http.Request) {
	code := auth.NormalizeInviteCode(r.PathValue("code"))
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invite code is required")
		return
	}

	var roomID string
	err := h.db.QueryRow("SELECT id FROM room WHERE invite_code = $1", code).Scan(&roomID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to query room by code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.writeRoom(w, r, roomID)
}

func (h *RoomHandler) writeRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	details, err := h.store.LoadRoom(r.Context(), roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to load room", "room_id", roomID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, details)
}

// ValidateInvite handles GET /invites/{code}/validate
// Lets a client check an invite code before asking for a name.
func (h *RoomHandler) ValidateInvite(w http.ResponseWriter, r *http.Request) {
	code := auth.NormalizeInviteCode(r.PathValue("code"))
	if len(code) != auth.InviteCodeLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid invite code")
		return
	}

	var summary models.RoomSummary
	err := h.db.QueryRow(`
		SELECT id, name, invite_code, is_active
		FROM room
		WHERE invite_code = $1
	`, code).Scan(&summary.ID, &summary.Name, &summary.InviteCode, &summary.IsActive)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to query room", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !summary.IsActive {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Room is no longer active")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, summary)
}

func validateSettings(req *models.UpdateSettingsRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.CheatName, validation.Length(0, 50)),
		// Min would skip an explicit zero
		validation.Field(&req.PollIntervalSeconds, validation.By(func(value interface{}) error {
			if p, _ := value.(*int); p != nil && (*p < 1 || *p > 60) {
				return errors.New("must be between 1 and 60")
			}
			return nil
		})),
	)
}

// UpdateSettings handles PUT /rooms/{id}/settings
// Moderator only. Fields left out of the body are unchanged.
func (h *RoomHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if !requireModerator(w, r, roomID, h.cfg.ModeratorKeySalt) {
		return
	}

	var req models.UpdateSettingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CheatName != nil {
		trimmed := strings.TrimSpace(*req.CheatName)
		req.CheatName = &trimmed
	}
	if err := validateSettings(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.CheatName != nil {
		if !h.updateRoomColumn(w, "cheat_name", *req.CheatName, roomID) {
			return
		}
	}
	if req.PollIntervalSeconds != nil {
		if !h.updateRoomColumn(w, "poll_interval_seconds", *req.PollIntervalSeconds, roomID) {
			return
		}
	}

	zap.S().Infow("room settings updated", "room_id", roomID)

	details, err := h.store.LoadRoom(r.Context(), roomID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, details.Room)
}

// updateRoomColumn sets one whitelisted settings column.
func (h *RoomHandler) updateRoomColumn(w http.ResponseWriter, column string, value any, roomID string) bool {
	res, err := h.db.Exec("UPDATE room SET "+column+" = $1 WHERE id = $2", value, roomID)
	if err != nil {
		zap.S().Errorw("failed to update room setting", "column", column, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update settings")
		return false
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return false
	}
	return true
}

// Cleanup handles POST /rooms/cleanup
// Deletes every room except the current one. Requires the current room's
// moderator key.
func (h *RoomHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req models.CleanupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.CurrentRoomID, validation.Required),
	); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if !requireModerator(w, r, req.CurrentRoomID, h.cfg.ModeratorKeySalt) {
		return
	}

	if _, err := loadRoomState(h.db, req.CurrentRoomID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Current room not found")
		return
	} else if err != nil {
		zap.S().Errorw("failed to query room", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	stats, err := h.deleteOtherRooms(req.CurrentRoomID)
	if err != nil {
		zap.S().Errorw("failed to clean up rooms", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clean up rooms")
		return
	}

	zap.S().Infow("rooms cleaned up",
		"kept_room_id", req.CurrentRoomID,
		"removed_rooms", stats.RemovedRooms,
		"removed_participants", stats.RemovedParticipants,
	)

	middleware.JSONResponse(w, http.StatusOK, models.CleanupResponse{
		Message: "Cleanup complete",
		Stats:   stats,
	})
}

// deleteOtherRooms removes children explicitly; SQLite does not enforce
// ON DELETE CASCADE unless foreign keys are switched on.
func (h *RoomHandler) deleteOtherRooms(keepRoomID string) (models.CleanupStats, error) {
	var stats models.CleanupStats

	tx, err := h.db.Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	steps := []struct {
		query   string
		counter *int64
	}{
		{`DELETE FROM score WHERE participant_id IN (SELECT id FROM participant WHERE room_id <> $1)`, &stats.RemovedScores},
		{`DELETE FROM photo WHERE participant_id IN (SELECT id FROM participant WHERE room_id <> $1)`, &stats.RemovedPhotos},
		{`DELETE FROM item WHERE room_id <> $1`, nil},
		{`DELETE FROM device_room WHERE room_id <> $1`, nil},
		{`DELETE FROM participant WHERE room_id <> $1`, &stats.RemovedParticipants},
		{`DELETE FROM room WHERE id <> $1`, &stats.RemovedRooms},
	}
	for _, step := range steps {
		res, err := tx.Exec(step.query, keepRoomID)
		if err != nil {
			return stats, err
		}
		if step.counter != nil {
			n, err := res.RowsAffected()
			if err != nil {
				return stats, err
			}
			*step.counter = n
		}
	}

	return stats, tx.Commit()
}
