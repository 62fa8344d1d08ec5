// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"sort"

	"github.com/danielhkuo/cleanplate/models"
)

// Scoreboard computes one line per participant, in participant order.
// Participants without an entry in results score manual points only.
func Scoreboard(participants []models.ParticipantDetails, results models.AIResults) []models.ParticipantTotal {
	board := make([]models.ParticipantTotal, 0, len(participants))
	for _, p := range participants {
		var ai *models.AnalysisResult
		if r, ok := results[p.ID]; ok {
			ai = &r
		}

		line := models.ParticipantTotal{
			ParticipantID: p.ID,
			Name:          p.Name,
			Manual:        ManualPoints(p.ManualTiers()),
			Auto:          AutoPoints(ai),
			Cleanliness:   CleanlinessPoints(ai),
		}
		line.Total = line.Manual + line.Auto + line.Cleanliness
		board = append(board, line)
	}
	return board
}

// Winners returns every line sharing the maximum total, so ties produce
// several winners. An empty board has no winners.
func Winners(board []models.ParticipantTotal) []models.ParticipantTotal {
	if len(board) == 0 {
		return []models.ParticipantTotal{}
	}

	best := board[0].Total
	for _, line := range board[1:] {
		if line.Total > best {
			best = line.Total
		}
	}

	winners := []models.ParticipantTotal{}
	for _, line := range board {
		if line.Total == best {
			winners = append(winners, line)
		}
	}
	return winners
}

// Ranked returns a copy of the board sorted by total, highest first.
// Ties keep participant order.
func Ranked(board []models.ParticipantTotal) []models.ParticipantTotal {
	ranked := make([]models.ParticipantTotal, len(board))
	copy(ranked, board)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked
}
