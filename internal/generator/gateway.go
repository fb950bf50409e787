// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.

// Package generator turns a brand image or existing SVG into a candidate
// BIMI logo through an external model, then validates what came back.
package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
	maxImageBytes    = 5 << 20
)

var (
	ErrEmptyInput    = errors.New("either an image or SVG text is required")
	ErrImageTooLarge = errors.New("image exceeds 5 MiB")
	ErrNoSVG         = errors.New("no <svg> document in generator output")
)

// Input is what the caller supplies: an image or SVG text, plus the brand.
type Input struct {
	BrandName string
	SVGText   string
	Image     []byte
	ImageMIME string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.SVGText) == "" && len(in.Image) == 0 {
		return ErrEmptyInput
	}
	if len(in.Image) > maxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

// Gateway is the external generative function. Its output is untrusted text.
type Gateway interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, in Input) (string, error)

func (f GatewayFunc) Generate(ctx context.Context, in Input) (string, error) {
	return f(ctx, in)
}

const systemPrompt = `You convert brand logos into SVG Tiny Portable/Secure (tiny-ps) documents for BIMI.
Rules: root <svg version="1.2" baseProfile="tiny-ps" xmlns="http://www.w3.org/2000/svg" viewBox="..."> with a square viewBox;
include a <title> with the brand name; use only basic shapes and paths with solid fills;
no scripts, event handlers, external references, embedded raster images, filters, gradients, <style> or animation.
Reply with the SVG document only.`

type OpenAIGateway struct {
	client *openai.Client
	model  string
}

// NewOpenAIGateway builds a gateway for an OpenAI compatible endpoint. An
// empty baseURL uses api.openai.com.
func NewOpenAIGateway(apiKey, baseURL, model string) (*OpenAIGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIGateway{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (g *OpenAIGateway) Generate(ctx context.Context, in Input) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}

	brand := strings.TrimSpace(in.BrandName)
	if brand == "" {
		brand = "the brand"
	}
	parts := []openai.ChatMessagePart{}
	if len(in.Image) > 0 {
		mime := in.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts,
			openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: fmt.Sprintf("Convert this logo for %s into a tiny-ps SVG.", brand),
			},
			openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(in.Image),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		)
	} else {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf("Rewrite this SVG logo for %s as a tiny-ps SVG:\n\n%s", brand, in.SVGText),
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
