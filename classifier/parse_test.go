// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/cleanplate/models"
)

func TestParseResponse_Initial(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []models.ScoreEntry
	}{
		{
			name: "json fence with empty list",
			text: "```json\n{\"items\":[]}\n```",
			want: []models.ScoreEntry{},
		},
		{
			name: "plain fence",
			text: "```\n{\"items\":[{\"name\":\"Pão\",\"quantity\":\"DOUBLE\"}]}\n```",
			want: []models.ScoreEntry{{Name: "Pão", Value: models.TierDouble}},
		},
		{
			name: "bare json with aliases",
			text: `{"items":[{"name":"Carne","quantity":"TRIPLO"},{"name":"Ovo","quantity":"simples"}]}`,
			want: []models.ScoreEntry{
				{Name: "Carne", Value: models.TierTriple},
				{Name: "Ovo", Value: models.TierSimple},
			},
		},
		{
			name: "prose around the object",
			text: "Here is what I see:\n{\"items\":[{\"name\":\"Bacon\",\"quantity\":\"SIMPLE\"}]}\nEnjoy!",
			want: []models.ScoreEntry{{Name: "Bacon", Value: models.TierSimple}},
		},
		{
			name: "braces inside strings",
			text: `Result: {"items":[{"name":"Salada {verde}","quantity":"DOUBLE"}]} and {"ignored":true}`,
			want: []models.ScoreEntry{{Name: "Salada {verde}", Value: models.TierDouble}},
		},
		{
			name: "unknown tiers and nameless items dropped",
			text: `{"items":[{"name":"Queijo","quantity":"HUGE"},{"name":"","quantity":"SIMPLE"},{"name":"Batata","quantity":"DIRTY"},{"name":"Arroz","value":"DUPLO"}]}`,
			want: []models.ScoreEntry{{Name: "Arroz", Value: models.TierDouble}},
		},
		{
			name: "missing items key",
			text: `{"foods":[]}`,
			want: []models.ScoreEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseResponse(tt.text, ModeInitial)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Items)
			assert.Equal(t, tt.text, res.Raw)
		})
	}
}

func TestParseResponse_Final(t *testing.T) {
	res, err := ParseResponse("```json\n{\"items\":[{\"name\":\"Limpeza\",\"quantity\":\"SUJO\"}]}\n```", ModeFinal)
	require.NoError(t, err)
	assert.Equal(t, []models.ScoreEntry{{Name: models.CleanlinessItem, Value: models.TierDirty}}, res.Items)

	// Whatever the model names it, the entry is recorded as the cleanliness item
	res, err = ParseResponse(`{"items":[{"name":"Cleanliness","quantity":"TRIPLE"},{"name":"x","quantity":"SIMPLE"}]}`, ModeFinal)
	require.NoError(t, err)
	assert.Equal(t, []models.ScoreEntry{{Name: models.CleanlinessItem, Value: models.TierTriple}}, res.Items)
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		mode Mode
		kind ErrorKind
	}{
		{"final with empty list", `{"items":[]}`, ModeFinal, KindEmpty},
		{"final with only unknown tiers", `{"items":[{"name":"Limpeza","quantity":"SPARKLING"}]}`, ModeFinal, KindEmpty},
		{"no json at all", "I cannot see a plate in this image.", ModeInitial, KindParse},
		{"unbalanced object", `{"items":[{"name":"Pão"`, ModeInitial, KindParse},
		{"items of wrong type", `{"items":"lots"}`, ModeInitial, KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.text, tt.mode)
			require.Error(t, err)

			var ce *ClassificationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.kind, ce.Kind)
			assert.Equal(t, tt.mode, ce.Mode)
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{}\n```", "{}"},
		{"```JSON {} ```", "{}"},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {}  ", "{}"},
		{"no fence", "no fence"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFences(tt.in), "input %q", tt.in)
	}
}

func TestExtractObject(t *testing.T) {
	obj, ok := ExtractObject(`noise {"a":"}\"{","b":{"c":1}} tail }`)
	require.True(t, ok)
	assert.Equal(t, `{"a":"}\"{","b":{"c":1}}`, obj)

	_, ok = ExtractObject("nothing here")
	assert.False(t, ok)

	_, ok = ExtractObject(`{"open":`)
	assert.False(t, ok)
}
