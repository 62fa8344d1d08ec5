// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/cleanplate/models"
)

// LoadRoom reads a room with its participants (oldest first), their photos
// and manual scores, and the room's items.
func (s *SQLStore) LoadRoom(ctx context.Context, roomID string) (models.RoomDetails, error) {
	room, err := s.loadRoomRow(ctx, roomID)
	if err != nil {
		return models.RoomDetails{}, err
	}

	participants, err := s.loadParticipants(ctx, roomID)
	if err != nil {
		return models.RoomDetails{}, err
	}

	index := make(map[string]int, len(participants))
	for i, p := range participants {
		index[p.ID] = i
	}

	photos, err := s.loadPhotos(ctx, roomID)
	if err != nil {
		return models.RoomDetails{}, err
	}
	for _, ph := range photos {
		if i, ok := index[ph.ParticipantID]; ok {
			participants[i].Photos = append(participants[i].Photos, ph)
		}
	}

	scores, err := s.loadScores(ctx, roomID)
	if err != nil {
		return models.RoomDetails{}, err
	}
	for _, sc := range scores {
		if i, ok := index[sc.ParticipantID]; ok {
			participants[i].Scores = append(participants[i].Scores, sc)
		}
	}

	items, err := s.loadItems(ctx, roomID)
	if err != nil {
		return models.RoomDetails{}, err
	}

	return models.RoomDetails{
		Room:         room,
		Participants: participants,
		Items:        items,
	}, nil
}

func (s *SQLStore) loadRoomRow(ctx context.Context, roomID string) (models.Room, error) {
	var room models.Room
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, moderator_name, invite_code, is_active, cheat_name,
		       poll_interval_seconds, ai_analyzing, ai_analysis_started_at,
		       scores_revealed, scores_revealed_at, last_reveal_error, created_at
		FROM room
		WHERE id = $1
	`, roomID).Scan(
		&room.ID, &room.Name, &room.ModeratorName, &room.InviteCode, &room.IsActive, &room.CheatName,
		&room.PollIntervalSeconds, &room.AIAnalyzing, &room.AIAnalysisStartedAt,
		&room.ScoresRevealed, &room.ScoresRevealedAt, &room.LastRevealError, &room.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("query room: %w", err)
	}
	return room, nil
}

func (s *SQLStore) loadParticipants(ctx context.Context, roomID string) ([]models.ParticipantDetails, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, name, created_at
		FROM participant
		WHERE room_id = $1
		ORDER BY created_at, id
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	participants := []models.ParticipantDetails{}
	for rows.Next() {
		p := models.ParticipantDetails{Photos: []models.Photo{}, Scores: []models.Score{}}
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (s *SQLStore) loadPhotos(ctx context.Context, roomID string) ([]models.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ph.id, ph.participant_id, ph.type, ph.url, ph.created_at
		FROM photo ph
		JOIN participant p ON p.id = ph.participant_id
		WHERE p.room_id = $1
		ORDER BY ph.type DESC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var ph models.Photo
		if err := rows.Scan(&ph.ID, &ph.ParticipantID, &ph.Type, &ph.URL, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, ph)
	}
	return photos, rows.Err()
}

func (s *SQLStore) loadScores(ctx context.Context, roomID string) ([]models.Score, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sc.id, sc.participant_id, sc.item_id, sc.value, sc.created_at, sc.updated_at
		FROM score sc
		JOIN participant p ON p.id = sc.participant_id
		WHERE p.room_id = $1
		ORDER BY sc.created_at, sc.id
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var scores []models.Score
	for rows.Next() {
		var sc models.Score
		if err := rows.Scan(&sc.ID, &sc.ParticipantID, &sc.ItemID, &sc.Value, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

func (s *SQLStore) loadItems(ctx context.Context, roomID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, name
		FROM item
		WHERE room_id = $1
		ORDER BY sort_order, id
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.RoomID, &it.Name); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
