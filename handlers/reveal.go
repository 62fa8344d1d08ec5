// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/live"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/reveal"
	"github.com/danielhkuo/cleanplate/store"
)

type RevealHandler struct {
	db           *sql.DB
	cfg          cliparse.Config
	orchestrator *reveal.Orchestrator
	hub          *live.Hub
}

func NewRevealHandler(db *sql.DB, cfg cliparse.Config, o *reveal.Orchestrator, hub *live.Hub) *RevealHandler {
	return &RevealHandler{db: db, cfg: cfg, orchestrator: o, hub: hub}
}

// Trigger handles POST /rooms/{id}/reveal
// Starts the analysis in the background and answers immediately.
// Clients follow progress through the status endpoints or the live socket.
func (h *RevealHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	if !requireModerator(w, r, roomID, h.cfg.ModeratorKeySalt) {
		return
	}

	err := h.orchestrator.Start(r.Context(), roomID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrRoomNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	case errors.Is(err, reveal.ErrPhotosMissing):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, reveal.ErrRevealInProgress):
		middleware.ErrorResponse(w, http.StatusConflict, "Analysis already in progress")
		return
	case errors.Is(err, reveal.ErrRoomInactive):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Room is no longer active")
		return
	default:
		zap.S().Errorw("failed to start reveal", "room_id", roomID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start analysis")
		return
	}

	middleware.JSONResponse(w, http.StatusAccepted, models.RevealStartedResponse{
		RoomID: roomID,
		Status: "started",
	})
}

// Status handles GET /rooms/{id}/reveal
func (h *RevealHandler) Status(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	status, err := h.orchestrator.Status(r.Context(), roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to load reveal status", "room_id", roomID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}

// AIStatus handles GET /rooms/{id}/ai-status
func (h *RevealHandler) AIStatus(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	status, err := h.orchestrator.AIStatus(r.Context(), roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to load ai status", "room_id", roomID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}

// Live handles GET /rooms/{id}/live
// Upgrades to a websocket that receives the reveal status on every change.
func (h *RevealHandler) Live(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	status, err := h.orchestrator.Status(r.Context(), roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to load reveal status", "room_id", roomID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// The upgrader has already answered the client when Serve fails
	if err := h.hub.Serve(w, r, roomID, status); err != nil {
		zap.S().Warnw("live connection failed", "room_id", roomID, "error", err)
	}
}
