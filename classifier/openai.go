// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var errNoContent = errors.New("response has no message content")

// OpenAIClient classifies photos with a vision-capable chat completion model.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a client. An empty baseURL uses the public API.
func NewOpenAIClient(apiKey, model, baseURL string, maxTokens int) *OpenAIClient {
	conf := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		conf.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(conf),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *OpenAIClient) SourceName() string { return "OpenAI" }

// Classify sends one chat completion with the photo attached as an image_url part.
func (c *OpenAIClient) Classify(ctx context.Context, imageRef string, mode Mode) (Result, error) {
	system, user := prompts(mode)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: user},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageRef,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return Result{}, &ClassificationError{Kind: errorKind(err), Mode: mode, Err: err}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Result{}, &ClassificationError{Kind: KindEmpty, Mode: mode, Err: errNoContent}
	}

	return ParseResponse(resp.Choices[0].Message.Content, mode)
}

// errorKind separates errors the API answered with from ones that never got an answer.
func errorKind(err error) ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return KindStatus
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return KindStatus
	}
	return KindTransport
}
