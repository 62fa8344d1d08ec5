// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/cleanplate/models"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrAlreadyAnalyzing = errors.New("room is already being analyzed")
)

// Status is the snapshot of a room that pollers see.
type Status struct {
	RoomID              string
	AIAnalyzing         bool
	AIAnalysisStartedAt *time.Time
	ScoresRevealed      bool
	ScoresRevealedAt    *time.Time
	AIResults           models.AIResults
	PollIntervalSeconds int
	LastRevealError     *string
}

// SnapshotStore persists room state for the reveal cycle. Every write is a
// single statement, so readers see either the old or the new values.
type SnapshotStore interface {
	LoadRoom(ctx context.Context, roomID string) (models.RoomDetails, error)
	GetRoomStatus(ctx context.Context, roomID string) (Status, error)
	// AcquireAnalyzing sets the analyzing flag only if it is clear.
	AcquireAnalyzing(ctx context.Context, roomID string, startedAt time.Time) error
	SetAIAnalyzing(ctx context.Context, roomID string, analyzing bool) error
	SetRevealed(ctx context.Context, roomID string, revealedAt time.Time, results models.AIResults) error
	RecordRevealError(ctx context.Context, roomID, message string) error
	// ResetAnalyzing clears flags left behind by a process that died mid-reveal.
	ResetAnalyzing(ctx context.Context) (int64, error)
}

// SQLStore implements SnapshotStore on database/sql. Queries use $N
// placeholders, which both SQLite and PostgreSQL drivers accept.
type SQLStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetRoomStatus(ctx context.Context, roomID string) (Status, error) {
	st := Status{RoomID: roomID}
	var results sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT ai_analyzing, ai_analysis_started_at, scores_revealed, scores_revealed_at,
		       ai_results, poll_interval_seconds, last_reveal_error
		FROM room
		WHERE id = $1
	`, roomID).Scan(
		&st.AIAnalyzing, &st.AIAnalysisStartedAt, &st.ScoresRevealed, &st.ScoresRevealedAt,
		&results, &st.PollIntervalSeconds, &st.LastRevealError,
	)
	if err == sql.ErrNoRows {
		return Status{}, ErrRoomNotFound
	}
	if err != nil {
		return Status{}, fmt.Errorf("query room status: %w", err)
	}

	st.AIResults, err = decodeResults(results)
	if err != nil {
		return Status{}, err
	}
	return st, nil
}

func (s *SQLStore) AcquireAnalyzing(ctx context.Context, roomID string, startedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE room
		SET ai_analyzing = TRUE, ai_analysis_started_at = $1, last_reveal_error = NULL
		WHERE id = $2 AND ai_analyzing = FALSE
	`, startedAt, roomID)
	if err != nil {
		return fmt.Errorf("acquire analyzing flag: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquire analyzing flag: %w", err)
	}
	if n == 1 {
		return nil
	}

	if err := s.roomExists(ctx, roomID); err != nil {
		return err
	}
	return ErrAlreadyAnalyzing
}

func (s *SQLStore) SetAIAnalyzing(ctx context.Context, roomID string, analyzing bool) error {
	var startedAt *time.Time
	if analyzing {
		now := time.Now()
		startedAt = &now
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE room
		SET ai_analyzing = $1, ai_analysis_started_at = $2
		WHERE id = $3
	`, analyzing, startedAt, roomID)
	if err != nil {
		return fmt.Errorf("set analyzing flag: %w", err)
	}
	return requireOneRow(res)
}

func (s *SQLStore) SetRevealed(ctx context.Context, roomID string, revealedAt time.Time, results models.AIResults) error {
	if results == nil {
		results = models.AIResults{}
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode ai results: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE room
		SET scores_revealed = TRUE, scores_revealed_at = $1, ai_results = $2, last_reveal_error = NULL
		WHERE id = $3
	`, revealedAt, string(payload), roomID)
	if err != nil {
		return fmt.Errorf("persist reveal snapshot: %w", err)
	}
	return requireOneRow(res)
}

func (s *SQLStore) RecordRevealError(ctx context.Context, roomID, message string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE room SET last_reveal_error = $1 WHERE id = $2
	`, message, roomID)
	if err != nil {
		return fmt.Errorf("record reveal error: %w", err)
	}
	return requireOneRow(res)
}

func (s *SQLStore) ResetAnalyzing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE room
		SET ai_analyzing = FALSE, ai_analysis_started_at = NULL
		WHERE ai_analyzing = TRUE
	`)
	if err != nil {
		return 0, fmt.Errorf("reset analyzing flags: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) roomExists(ctx context.Context, roomID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM room WHERE id = $1", roomID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("query room: %w", err)
	}
	return nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func decodeResults(raw sql.NullString) (models.AIResults, error) {
	results := models.AIResults{}
	if !raw.Valid || raw.String == "" {
		return results, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &results); err != nil {
		return nil, fmt.Errorf("decode ai results: %w", err)
	}
	return results, nil
}
