// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/middleware"
)

const (
	moderatorKeyHeader = "X-Moderator-Key"
	deviceUUIDHeader   = "X-Device-UUID"
)

// requireModerator writes a 401 and returns false unless the request
// carries the room's moderator key.
func requireModerator(w http.ResponseWriter, r *http.Request, roomID, salt string) bool {
	if err := auth.ValidateModeratorKey(roomID, r.Header.Get(moderatorKeyHeader), salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid moderator key")
		return false
	}
	return true
}

type roomState struct {
	IsActive       bool
	AIAnalyzing    bool
	ScoresRevealed bool
}

// loadRoomState returns sql.ErrNoRows for an unknown room.
func loadRoomState(db *sql.DB, roomID string) (roomState, error) {
	var st roomState
	err := db.QueryRow(`
		SELECT is_active, ai_analyzing, scores_revealed
		FROM room
		WHERE id = $1
	`, roomID).Scan(&st.IsActive, &st.AIAnalyzing, &st.ScoresRevealed)
	return st, err
}

// participantInRoom reports whether the participant belongs to the room.
func participantInRoom(db *sql.DB, roomID, participantID string) (bool, error) {
	var one int
	err := db.QueryRow(`
		SELECT 1 FROM participant WHERE id = $1 AND room_id = $2
	`, participantID, roomID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// checkEditable writes the error response for rooms that cannot be edited:
// unknown (404), inactive (400) or mid-reveal (409).
func checkEditable(w http.ResponseWriter, db *sql.DB, roomID string) bool {
	st, err := loadRoomState(db, roomID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return false
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if !st.IsActive {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Room is no longer active")
		return false
	}
	if st.AIAnalyzing {
		middleware.ErrorResponse(w, http.StatusConflict, "Room is being analyzed")
		return false
	}
	return true
}
