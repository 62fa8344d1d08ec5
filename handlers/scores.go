// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/scoring"
)

type ScoreHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewScoreHandler(db *sql.DB, cfg cliparse.Config) *ScoreHandler {
	return &ScoreHandler{db: db, cfg: cfg}
}

// Submit handles POST /rooms/{id}/scores
// Upserts one manual score per (participant, item). Entries with an unknown
// item or an invalid tier are skipped, not rejected.
func (h *ScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	var req models.SubmitScoresRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.ParticipantID, validation.Required),
		validation.Field(&req.Scores, validation.NotNil),
	); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkEditable(w, h.db, roomID) {
		return
	}
	if ok, err := participantInRoom(h.db, roomID, req.ParticipantID); err != nil {
		zap.S().Errorw("failed to query participant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	} else if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Participant not found")
		return
	}

	items, err := h.roomItems(roomID)
	if err != nil {
		zap.S().Errorw("failed to query items", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	saved := []models.Score{}
	skipped := 0
	for _, s := range req.Scores {
		tier, ok := scoring.ParseTier(string(s.Value))
		if !ok || tier == models.TierDirty || !items[s.ItemID] {
			skipped++
			continue
		}

		score, err := h.upsertScore(req.ParticipantID, s.ItemID, tier)
		if err != nil {
			zap.S().Errorw("failed to save score", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save scores")
			return
		}
		saved = append(saved, score)
	}

	zap.S().Infow("scores saved",
		"room_id", roomID,
		"participant_id", req.ParticipantID,
		"saved", len(saved),
		"skipped", skipped,
	)

	middleware.JSONResponse(w, http.StatusOK, models.SubmitScoresResponse{
		Message: "Scores saved",
		Scores:  saved,
	})
}

func (h *ScoreHandler) roomItems(roomID string) (map[string]bool, error) {
	rows, err := h.db.Query("SELECT id FROM item WHERE room_id = $1", roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items[id] = true
	}
	return items, rows.Err()
}

func (h *ScoreHandler) upsertScore(participantID, itemID string, tier models.Tier) (models.Score, error) {
	scoreID, err := auth.GenerateID(12)
	if err != nil {
		return models.Score{}, err
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO score (id, participant_id, item_id, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (participant_id, item_id) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, scoreID, participantID, itemID, string(tier), now, now)
	if err != nil {
		return models.Score{}, err
	}

	var s models.Score
	err = h.db.QueryRow(`
		SELECT id, participant_id, item_id, value, created_at, updated_at
		FROM score
		WHERE participant_id = $1 AND item_id = $2
	`, participantID, itemID).Scan(&s.ID, &s.ParticipantID, &s.ItemID, &s.Value, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
