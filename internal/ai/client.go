// Package ai adapts the external text-generation provider into typed,
// validated domain shapes. A single call is made per invocation, with no
// retries; every failure mode surfaces as ErrUnavailable.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// Generator is the provider-facing contract. Handlers and services depend on
// this interface so tests can substitute a fake.
type Generator interface {
	GenerateCaseStudy(ctx context.Context, domain, difficulty string) (*GeneratedCase, error)
	GeneratePracticeQuestion(ctx context.Context, domain, difficulty string, questionNumber, totalQuestions int, topicsCovered []string) (*GeneratedQuestion, error)
	GenerateEvolvingTip(ctx context.Context, p TipParams) (string, error)
	GeneratePivot(ctx context.Context, stem, correctLabel, correctRationale string) (*PivotScenario, error)
	AnalyzeEvidence(ctx context.Context, vignette, questionStem, correctAnswer, correctRationale string, userHighlights []HighlightSpan) *EvidenceAnalysis
}

// Config carries everything the client needs; read once from application
// configuration and injected here, never from the process environment.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

// NewClient builds the adapter. A missing API key is allowed: the client is
// constructed but every call reports unavailability, mirroring how the rest
// of the system stays up when generation is down.
func NewClient(cfg Config, log *zap.Logger) *Client {
	var api *openai.Client
	if cfg.APIKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		api = openai.NewClient(opts...)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		api:     api,
		model:   cfg.Model,
		timeout: timeout,
		log:     log,
	}
}

// complete performs one chat completion and returns the raw text.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.api == nil {
		// Credential misconfiguration and transient failure collapse to the
		// same signal; the log line is the only place they differ.
		c.log.Warn("Generation requested but no API key is configured")
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model: openai.F(openai.ChatModel(c.model)),
	})
	if err != nil {
		c.log.Error("Generation call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.log.Error("Generation returned an empty response")
		return "", ErrUnavailable
	}
	return resp.Choices[0].Message.Content, nil
}

// completeJSON performs one completion and decodes the (fence-stripped)
// output into out, then validates it.
func (c *Client) completeJSON(ctx context.Context, prompt string, out interface{ Validate() error }) error {
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cleanJSONText(text)), out); err != nil {
		c.log.Error("Failed to parse generation output", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return out.Validate()
}

// GenerateCaseStudy produces a full multi-question vignette case.
func (c *Client) GenerateCaseStudy(ctx context.Context, domain, difficulty string) (*GeneratedCase, error) {
	var out GeneratedCase
	if err := c.completeJSON(ctx, caseStudyPrompt(domain, difficulty), &out); err != nil {
		return nil, err
	}
	if !out.HasEquityQuestion() {
		// Blueprint violation. Flagged, not fatal; the caller tags the case.
		c.log.Warn("Generated case has no CEJ_JUSTICE question", zap.String("title", out.Title))
	}
	return &out, nil
}

// GeneratePracticeQuestion produces one standalone question for the mock
// study flow, steering away from topics already covered.
func (c *Client) GeneratePracticeQuestion(ctx context.Context, domain, difficulty string, questionNumber, totalQuestions int, topicsCovered []string) (*GeneratedQuestion, error) {
	var out GeneratedQuestion
	prompt := practiceQuestionPrompt(domain, difficulty, questionNumber, totalQuestions, topicsCovered)
	if err := c.completeJSON(ctx, prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateEvolvingTip produces a short free-text coaching string; no JSON
// structure is required of the provider here.
func (c *Client) GenerateEvolvingTip(ctx context.Context, p TipParams) (string, error) {
	text, err := c.complete(ctx, evolvingTipPrompt(p))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// GeneratePivot derives a hypothetical variant of a question.
func (c *Client) GeneratePivot(ctx context.Context, stem, correctLabel, correctRationale string) (*PivotScenario, error) {
	var out PivotScenario
	if err := c.completeJSON(ctx, pivotPrompt(stem, correctLabel, correctRationale), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate for PivotScenario: all three fields must be present.
func (p *PivotScenario) Validate() error {
	if p.PivotVariable == "" || p.NewScenarioSnippet == "" || p.ChangeExplanation == "" {
		return fmt.Errorf("%w: incomplete pivot scenario", ErrMalformedOutput)
	}
	return nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// cleanJSONText strips a markdown code fence (with optional language tag)
// from provider output so the payload parses as JSON.
func cleanJSONText(text string) string {
	if text == "" {
		return ""
	}
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
