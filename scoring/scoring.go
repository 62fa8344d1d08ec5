// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"strings"

	"github.com/danielhkuo/cleanplate/models"
)

// tierAliases maps every accepted spelling to its canonical tier.
// The Portuguese labels come from the prompts the game was first played with.
var tierAliases = map[string]models.Tier{
	"SIMPLE":  models.TierSimple,
	"SIMPLES": models.TierSimple,
	"DOUBLE":  models.TierDouble,
	"DUPLO":   models.TierDouble,
	"TRIPLE":  models.TierTriple,
	"TRIPLO":  models.TierTriple,
	"DIRTY":   models.TierDirty,
	"SUJO":    models.TierDirty,
}

// ParseTier normalizes a tier label. Matching ignores case and surrounding space.
func ParseTier(s string) (models.Tier, bool) {
	t, ok := tierAliases[strings.ToUpper(strings.TrimSpace(s))]
	return t, ok
}

// Points returns the points a tier is worth. Unknown tiers are worth nothing.
func Points(t models.Tier) int {
	switch t {
	case models.TierSimple:
		return 1
	case models.TierDouble:
		return 2
	case models.TierTriple:
		return 3
	}
	return 0
}

// ManualPoints sums manually reported tiers.
func ManualPoints(tiers []models.Tier) int {
	total := 0
	for _, t := range tiers {
		total += Points(t)
	}
	return total
}

// AutoPoints sums the classifier's food items. A nil result is worth nothing.
func AutoPoints(r *models.AnalysisResult) int {
	if r == nil {
		return 0
	}
	total := 0
	for _, e := range r.AutoScores {
		total += Points(e.Value)
	}
	return total
}

// CleanlinessPoints scores the FINAL photo. Absent and DIRTY are both 0.
func CleanlinessPoints(r *models.AnalysisResult) int {
	if r == nil || r.CleanlinessScore == nil {
		return 0
	}
	return Points(r.CleanlinessScore.Value)
}

// TotalScore is manual + auto + cleanliness.
func TotalScore(manual []models.Tier, r *models.AnalysisResult) int {
	return ManualPoints(manual) + AutoPoints(r) + CleanlinessPoints(r)
}
