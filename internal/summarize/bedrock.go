// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/aws/aws-sdk-go/service/bedrockruntime/bedrockruntimeiface"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

const bedrockAnthropicVersion = "bedrock-2023-05-31"

// BedrockSummarizer invokes an Anthropic model hosted on Amazon Bedrock.
// Credentials come from the default AWS chain.
type BedrockSummarizer struct {
	client  bedrockruntimeiface.BedrockRuntimeAPI
	modelID string
}

// NewBedrockSummarizer creates a Bedrock runtime client in cfg.Region.
func NewBedrockSummarizer(cfg types.SummarizerConfig) (*BedrockSummarizer, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("bedrock summarizer: model is required")
	}
	awsCfg := &aws.Config{MaxRetries: aws.Int(0)}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return NewBedrockSummarizerWithClient(bedrockruntime.New(sess), cfg.Model), nil
}

// NewBedrockSummarizerWithClient wraps an existing Bedrock runtime client.
func NewBedrockSummarizerWithClient(client bedrockruntimeiface.BedrockRuntimeAPI, modelID string) *BedrockSummarizer {
	return &BedrockSummarizer{client: client, modelID: modelID}
}

type bedrockRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Messages         []claudeMessage `json:"messages"`
}

// Summarize implements Summarizer.
func (b *BedrockSummarizer) Summarize(ctx context.Context, text string, maxOutputTokens int) (string, error) {
	prompt, err := renderPrompt(text)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        maxOutputTokens,
		Messages:         []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	out, err := b.client.InvokeModelWithContext(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoking %s: %w", b.modelID, err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decoding Bedrock response: %w", err)
	}
	summary := strings.TrimSpace(resp.text())
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}
