// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reveal

import (
	"context"

	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/scoring"
)

// Status builds the document clients poll. Results, scoreboard and winners
// stay empty until the room is revealed.
func (o *Orchestrator) Status(ctx context.Context, roomID string) (models.RevealStatusResponse, error) {
	st, err := o.store.GetRoomStatus(ctx, roomID)
	if err != nil {
		return models.RevealStatusResponse{}, err
	}

	resp := models.RevealStatusResponse{
		RoomID:              roomID,
		AIAnalyzing:         st.AIAnalyzing,
		PollIntervalSeconds: st.PollIntervalSeconds,
		ScoresRevealed:      st.ScoresRevealed,
		ScoresRevealedAt:    st.ScoresRevealedAt,
		AIResults:           models.AIResults{},
		Scoreboard:          []models.ParticipantTotal{},
		Winners:             []string{},
	}
	if !st.ScoresRevealed {
		return resp, nil
	}

	details, err := o.store.LoadRoom(ctx, roomID)
	if err != nil {
		return models.RevealStatusResponse{}, err
	}

	board := scoring.Scoreboard(details.Participants, st.AIResults)
	resp.AIResults = st.AIResults
	resp.Scoreboard = scoring.Ranked(board)
	for _, w := range scoring.Winners(board) {
		resp.Winners = append(resp.Winners, w.ParticipantID)
	}
	return resp, nil
}

// AIStatus reports the analyzing flag together with the latest cycle's
// attempt counters and rolling log.
func (o *Orchestrator) AIStatus(ctx context.Context, roomID string) (models.AIStatusResponse, error) {
	st, err := o.store.GetRoomStatus(ctx, roomID)
	if err != nil {
		return models.AIStatusResponse{}, err
	}

	resp := models.AIStatusResponse{
		RoomID:              roomID,
		AIAnalyzing:         st.AIAnalyzing,
		AIAnalysisStartedAt: st.AIAnalysisStartedAt,
		PollIntervalSeconds: st.PollIntervalSeconds,
		Attempts:            map[string]int{},
		Log:                 []string{},
		LastError:           st.LastRevealError,
	}

	o.mu.Lock()
	p := o.progress[roomID]
	o.mu.Unlock()
	if p != nil {
		resp.Attempts, resp.Log = p.Snapshot()
	}
	return resp, nil
}
