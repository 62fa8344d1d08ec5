// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/handlers"
	"github.com/danielhkuo/cleanplate/live"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/reveal"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, orchestrator *reveal.Orchestrator, hub *live.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	roomHandler := handlers.NewRoomHandler(db, cfg)
	participantHandler := handlers.NewParticipantHandler(db, cfg)
	photoHandler := handlers.NewPhotoHandler(db, cfg)
	scoreHandler := handlers.NewScoreHandler(db, cfg)
	revealHandler := handlers.NewRevealHandler(db, cfg, orchestrator, hub)
	deviceHandler := handlers.NewDeviceHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Rooms
	mux.HandleFunc("POST /rooms", middleware.WithLogging(roomHandler.CreateRoom))
	mux.HandleFunc("GET /rooms/{id}", middleware.WithLogging(roomHandler.GetRoom))
	mux.HandleFunc("PUT /rooms/{id}/settings", middleware.WithLogging(roomHandler.UpdateSettings))
	mux.HandleFunc("POST /rooms/cleanup", middleware.WithLogging(roomHandler.Cleanup))
	mux.HandleFunc("GET /invites/{code}", middleware.WithLogging(roomHandler.GetRoomByCode))
	mux.HandleFunc("GET /invites/{code}/validate", middleware.WithLogging(roomHandler.ValidateInvite))

	// Participants, photos and manual scores
	mux.HandleFunc("POST /rooms/{id}/participants", middleware.WithLogging(participantHandler.Join))
	mux.HandleFunc("POST /rooms/{id}/participants/{pid}/photos", middleware.WithLogging(photoHandler.Upload))
	mux.HandleFunc("DELETE /rooms/{id}/participants/{pid}/photos", middleware.WithLogging(photoHandler.Delete))
	mux.HandleFunc("POST /rooms/{id}/scores", middleware.WithLogging(scoreHandler.Submit))

	// Reveal
	mux.HandleFunc("POST /rooms/{id}/reveal", middleware.WithLogging(revealHandler.Trigger))
	mux.HandleFunc("GET /rooms/{id}/reveal", middleware.WithLogging(revealHandler.Status))
	mux.HandleFunc("GET /rooms/{id}/ai-status", middleware.WithLogging(revealHandler.AIStatus))
	mux.HandleFunc("GET /rooms/{id}/live", revealHandler.Live)

	// Device management
	mux.HandleFunc("POST /devices/register", middleware.WithLogging(deviceHandler.Register))
	mux.HandleFunc("GET /devices/me", middleware.WithLogging(deviceHandler.GetMe))
	mux.HandleFunc("GET /devices/my-rooms", middleware.WithLogging(deviceHandler.GetMyRooms))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("cleanplate API v1"))
	})

	return mux
}
