// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/json"

	"github.com/danielhkuo/cleanplate/models"
)

var stubMenu = []string{"Pão", "Carne", "Salada", "Bacon", "Ovo", "Queijo", "Batata"}

// StubClient is a deterministic, no-network classifier for CI and local
// play. The answer depends only on the image reference and mode, and goes
// through ParseResponse like a real model answer.
type StubClient struct{}

func NewStubClient() *StubClient { return &StubClient{} }

func (c *StubClient) SourceName() string { return "Stub" }

func (c *StubClient) Classify(ctx context.Context, imageRef string, mode Mode) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &ClassificationError{Kind: KindTransport, Mode: mode, Err: err}
	}

	sum := sha256.Sum256(append([]byte(mode), imageRef...))
	tiers := []models.Tier{models.TierSimple, models.TierDouble, models.TierTriple}

	var items []map[string]string
	if mode == ModeFinal {
		levels := []models.Tier{models.TierDirty, models.TierSimple, models.TierDouble, models.TierTriple}
		items = append(items, map[string]string{
			"name":     models.CleanlinessItem,
			"quantity": string(levels[int(sum[0])%len(levels)]),
		})
	} else {
		n := int(sum[0])%3 + 1
		for i := 0; i < n; i++ {
			items = append(items, map[string]string{
				"name":     stubMenu[(int(sum[1])+i)%len(stubMenu)],
				"quantity": string(tiers[int(sum[2+i])%len(tiers)]),
			})
		}
	}

	b, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return Result{}, &ClassificationError{Kind: KindParse, Mode: mode, Err: err}
	}
	return ParseResponse("```json\n"+string(b)+"\n```", mode)
}
