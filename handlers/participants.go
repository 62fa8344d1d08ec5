// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/models"
)

type ParticipantHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewParticipantHandler(db *sql.DB, cfg cliparse.Config) *ParticipantHandler {
	return &ParticipantHandler{db: db, cfg: cfg}
}

// Join handles POST /rooms/{id}/participants
// Names are unique per room, ignoring case.
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	var req models.JoinRoomRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 50)),
	); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkEditable(w, h.db, roomID) {
		return
	}

	var one int
	err := h.db.QueryRow(`
		SELECT 1 FROM participant WHERE room_id = $1 AND LOWER(name) = LOWER($2)
	`, roomID, req.Name).Scan(&one)
	if err == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Name already taken in this room")
		return
	}
	if err != sql.ErrNoRows {
		zap.S().Errorw("failed to check participant name", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	participantID, err := auth.GenerateID(12)
	if err != nil {
		zap.S().Errorw("failed to generate participant ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join room")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO participant (id, room_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, participantID, roomID, req.Name, time.Now())
	if err != nil {
		// The unique constraint catches a concurrent join with the same name
		zap.S().Warnw("failed to insert participant", "error", err)
		middleware.ErrorResponse(w, http.StatusConflict, "Name already taken in this room")
		return
	}

	// Link device if provided
	if deviceID, err := GetOrCreateDevice(h.db, r); err != nil {
		zap.S().Warnw("failed to get/create device", "error", err)
	} else if deviceID != "" {
		if err := LinkDeviceToRoom(h.db, deviceID, roomID, models.RoleParticipant, &participantID); err != nil {
			zap.S().Warnw("failed to link device to room", "error", err)
		}
	}

	zap.S().Infow("participant joined", "room_id", roomID, "participant_id", participantID)

	middleware.JSONResponse(w, http.StatusCreated, models.JoinRoomResponse{
		ParticipantID: participantID,
		Message:       "Joined room",
	})
}
