// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"testing"

	"github.com/danielhkuo/cleanplate/models"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		input  string
		want   models.Tier
		wantOK bool
	}{
		{"SIMPLE", models.TierSimple, true},
		{"simples", models.TierSimple, true},
		{" Duplo ", models.TierDouble, true},
		{"DOUBLE", models.TierDouble, true},
		{"TRIPLO", models.TierTriple, true},
		{"triple", models.TierTriple, true},
		{"SUJO", models.TierDirty, true},
		{"dirty", models.TierDirty, true},
		{"QUADRUPLE", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTier(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTier(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseTier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		tier models.Tier
		want int
	}{
		{models.TierSimple, 1},
		{models.TierDouble, 2},
		{models.TierTriple, 3},
		{models.TierDirty, 0},
		{"", 0},
		{"BOGUS", 0},
	}

	for _, tt := range tests {
		if got := Points(tt.tier); got != tt.want {
			t.Errorf("Points(%q) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestTotalScore(t *testing.T) {
	cleanTriple := &models.ScoreEntry{Name: models.CleanlinessItem, Value: models.TierTriple}
	cleanDirty := &models.ScoreEntry{Name: models.CleanlinessItem, Value: models.TierDirty}

	tests := []struct {
		name   string
		manual []models.Tier
		ai     *models.AnalysisResult
		want   int
	}{
		{
			name: "no data at all",
			want: 0,
		},
		{
			name:   "manual only",
			manual: []models.Tier{models.TierSimple, models.TierTriple},
			want:   4,
		},
		{
			name: "auto and cleanliness",
			ai: &models.AnalysisResult{
				AutoScores:       []models.ScoreEntry{{Name: "Pão", Value: models.TierDouble}},
				CleanlinessScore: cleanTriple,
			},
			want: 5,
		},
		{
			name:   "dirty plate adds nothing",
			manual: []models.Tier{models.TierDouble},
			ai: &models.AnalysisResult{
				AutoScores:       []models.ScoreEntry{{Name: "Ovo", Value: models.TierSimple}},
				CleanlinessScore: cleanDirty,
			},
			want: 3,
		},
		{
			name: "failed final analysis is absent",
			ai: &models.AnalysisResult{
				AutoScores:    []models.ScoreEntry{{Name: "Bacon", Value: models.TierTriple}},
				FinalAnalysis: models.AnalysisFailed,
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalScore(tt.manual, tt.ai)
			if got != tt.want {
				t.Errorf("TotalScore() = %d, want %d", got, tt.want)
			}
			// Pure: same inputs, same answer
			if again := TotalScore(tt.manual, tt.ai); again != got {
				t.Errorf("TotalScore() not stable: %d then %d", got, again)
			}
		})
	}
}

func TestScoreboardAndWinners(t *testing.T) {
	participants := []models.ParticipantDetails{
		{Participant: models.Participant{ID: "a", Name: "Ana"}},
		{Participant: models.Participant{ID: "b", Name: "Bruno"}},
		{Participant: models.Participant{ID: "c", Name: "Carla"},
			Scores: []models.Score{{Value: models.TierDouble}, {Value: models.TierTriple}}},
	}
	results := models.AIResults{
		"a": {
			ParticipantID:    "a",
			AutoScores:       []models.ScoreEntry{{Name: "Pão", Value: models.TierDouble}},
			CleanlinessScore: &models.ScoreEntry{Name: models.CleanlinessItem, Value: models.TierTriple},
		},
		"b": {ParticipantID: "b", FinalAnalysis: models.AnalysisFailed},
	}

	board := Scoreboard(participants, results)
	if len(board) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(board))
	}

	want := map[string]int{"a": 5, "b": 0, "c": 5}
	for _, line := range board {
		if line.Total != want[line.ParticipantID] {
			t.Errorf("%s total = %d, want %d", line.Name, line.Total, want[line.ParticipantID])
		}
	}

	winners := Winners(board)
	if len(winners) != 2 {
		t.Fatalf("Expected a tie between 2 winners, got %d", len(winners))
	}
	if winners[0].ParticipantID != "a" || winners[1].ParticipantID != "c" {
		t.Errorf("Unexpected winners: %+v", winners)
	}

	ranked := Ranked(board)
	if ranked[len(ranked)-1].ParticipantID != "b" {
		t.Errorf("Expected b last, got %s", ranked[len(ranked)-1].ParticipantID)
	}
}

func TestWinners_Empty(t *testing.T) {
	if got := Winners(nil); len(got) != 0 {
		t.Errorf("Expected no winners for an empty room, got %d", len(got))
	}
}
