// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/scoring"
)

var errNoCleanliness = errors.New("response has no cleanliness level")

type wireItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Value    string `json:"value"`
}

type wireResponse struct {
	Items []wireItem `json:"items"`
}

// ParseResponse turns model output into a Result. The text may be bare JSON,
// JSON in a ``` or ```json fence, or prose around a JSON object.
// Items with an unknown tier are dropped. A FINAL answer with no usable
// item is a KindEmpty error; an INITIAL answer with no items is valid.
func ParseResponse(text string, mode Mode) (Result, error) {
	var wr wireResponse
	if err := json.Unmarshal([]byte(StripFences(text)), &wr); err != nil {
		obj, ok := ExtractObject(text)
		if !ok {
			return Result{}, &ClassificationError{Kind: KindParse, Mode: mode, Err: err}
		}
		wr = wireResponse{}
		if err := json.Unmarshal([]byte(obj), &wr); err != nil {
			return Result{}, &ClassificationError{Kind: KindParse, Mode: mode, Err: err}
		}
	}

	items := normalize(wr.Items, mode)
	if mode == ModeFinal {
		if len(items) == 0 {
			return Result{}, &ClassificationError{Kind: KindEmpty, Mode: mode, Err: errNoCleanliness}
		}
		items = []models.ScoreEntry{{Name: models.CleanlinessItem, Value: items[0].Value}}
	}

	return Result{Items: items, Raw: text}, nil
}

func normalize(raw []wireItem, mode Mode) []models.ScoreEntry {
	items := []models.ScoreEntry{}
	for _, it := range raw {
		label := it.Quantity
		if label == "" {
			label = it.Value
		}
		tier, ok := scoring.ParseTier(label)
		if !ok {
			continue
		}
		if mode == ModeInitial && tier == models.TierDirty {
			continue
		}

		name := strings.TrimSpace(it.Name)
		if name == "" {
			if mode == ModeInitial {
				continue
			}
			name = models.CleanlinessItem
		}
		items = append(items, models.ScoreEntry{Name: name, Value: tier})
	}
	return items
}

// StripFences removes a surrounding markdown code fence, with or without a
// json language tag.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the first balanced {...} substring of text.
// Braces inside JSON string literals are ignored.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
