package translate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

// Gemini translates through the Generative Language API.
type Gemini struct {
	svc *generativelanguage.Service
	cfg Config
}

var _ Translator = (*Gemini)(nil)

// NewGemini returns a Gemini translator. apiKey may be empty when opts
// carry their own credentials or HTTP client.
func NewGemini(ctx context.Context, apiKey string, cfg Config, opts ...option.ClientOption) (*Gemini, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("translate: create gemini client: %w", err)
	}
	return &Gemini{svc: svc, cfg: cfg}, nil
}

// TranslateBatch sends texts in one prompt and splits the reply by line.
func (g *Gemini) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: buildPrompt(g.cfg, texts)}},
		}},
	}
	resp, err := g.svc.Models.GenerateContent("models/"+g.cfg.Model, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("translate: generate content: %w", err)
	}

	reply, err := replyText(resp)
	if err != nil {
		return nil, err
	}
	return parseReply(reply, len(texts))
}

func replyText(resp *generativelanguage.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyReply
	}
	c := resp.Candidates[0]

	var b strings.Builder
	if c.Content != nil {
		for _, p := range c.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
	}
	if b.Len() == 0 {
		if c.FinishReason != "" {
			return "", fmt.Errorf("%w: finish reason %s", ErrEmptyReply, c.FinishReason)
		}
		return "", ErrEmptyReply
	}
	return b.String(), nil
}
