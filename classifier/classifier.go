// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"context"
	"fmt"

	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/models"
)

// Mode selects what the classifier looks for in a photo.
type Mode string

const (
	// ModeInitial enumerates the food on the plate before eating.
	ModeInitial Mode = models.PhotoInitial
	// ModeFinal rates how clean the plate is afterwards.
	ModeFinal Mode = models.PhotoFinal
)

// Result is a parsed classifier answer.
// For ModeFinal, Items holds exactly one CleanlinessItem entry.
type Result struct {
	Items []models.ScoreEntry
	Raw   string
}

// Classifier analyzes a photo given by URL or data URL.
// Implementations must be safe for concurrent use and must report every
// failure as a *ClassificationError.
type Classifier interface {
	Classify(ctx context.Context, imageRef string, mode Mode) (Result, error)
	// SourceName is a short provider label used in logs.
	SourceName() string
}

// ErrorKind is the broad reason a classification failed.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindEmpty     ErrorKind = "empty"
	KindParse     ErrorKind = "parse"
	// KindPanic is set by callers that recover a panicking Classify.
	KindPanic     ErrorKind = "panic"
)

// ClassificationError is the only error type a Classifier returns.
type ClassificationError struct {
	Kind ErrorKind
	Mode Mode
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %s: %v", e.Mode, e.Kind, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// New builds the classifier selected by cfg.LLMProvider.
func New(cfg cliparse.Config) (Classifier, error) {
	switch cfg.LLMProvider {
	case cliparse.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.MaxTokens), nil
	case cliparse.ProviderStub:
		return NewStubClient(), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}
