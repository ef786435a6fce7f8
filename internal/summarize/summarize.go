// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize condenses long article text with a hosted Claude model,
// either through Amazon Bedrock or the Anthropic Messages API.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

// maxPromptInput caps how many characters of article text go into the prompt.
const maxPromptInput = 50000

var (
	// ErrEmptySummary is returned when the model answers without text.
	ErrEmptySummary = errors.New("model returned an empty summary")

	// ErrDisabled is returned by the summarizer of the "none" backend.
	ErrDisabled = errors.New("summarization is disabled")
)

// Summarizer condenses text to at most maxOutputTokens model tokens.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxOutputTokens int) (string, error)
}

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Please provide a comprehensive summary of this scientific article. Focus on:
1. Main research objectives and hypotheses
2. Key methodologies used
3. Primary findings and results
4. Clinical or research implications
5. Conclusions and future directions

Article content:
{{.Content}}

Provide a detailed but concise summary suitable for research purposes.`))

// renderPrompt executes the summary prompt with text capped at maxPromptInput
// characters.
func renderPrompt(text string) (string, error) {
	if r := []rune(text); len(r) > maxPromptInput {
		text = string(r[:maxPromptInput])
	}
	var buf bytes.Buffer
	if err := summaryPromptTmpl.Execute(&buf, struct{ Content string }{Content: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Disabled always fails, so callers fall back to truncation.
type Disabled struct{}

// Summarize implements Summarizer.
func (Disabled) Summarize(context.Context, string, int) (string, error) {
	return "", ErrDisabled
}

// New builds the Summarizer selected by cfg.Backend.
func New(cfg types.SummarizerConfig) (Summarizer, error) {
	switch cfg.Backend {
	case types.SummarizerBedrock:
		return NewBedrockSummarizer(cfg)
	case types.SummarizerClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude summarizer: api key is required")
		}
		return &ClaudeSummarizer{APIKey: cfg.APIKey, Model: cfg.Model}, nil
	case types.SummarizerNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown summarizer backend %q", cfg.Backend)
	}
}
