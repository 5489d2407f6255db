package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/prompts"
)

// GeminiService handles the three language/vision stages of the pipeline:
// planning, meme text composition and text overlay.
type GeminiService struct {
	client      *genai.Client
	planModel   string
	visionModel string
	imageModel  string
	logger      *logger.Logger
}

// GeminiConfig holds configuration for the Gemini service.
type GeminiConfig struct {
	APIKey      string
	PlanModel   string
	VisionModel string
	ImageModel  string
}

// PlanSource records how a planning response was interpreted, so callers
// and tests can tell a clean parse from one patched with defaults.
type PlanSource string

const (
	PlanFromResponse PlanSource = "response"
	PlanWithDefaults PlanSource = "defaults"
)

// NewGeminiService creates a new Gemini service.
// Parameters:
//   - ctx: context used for client initialization.
//   - cfg: Gemini configuration including API key and model names.
//   - log: structured logger; nil uses the default logger.
//
// Returns:
//   - *GeminiService: initialized client wrapper.
//   - error: non-nil if the API key is missing or the client cannot be built.
func NewGeminiService(ctx context.Context, cfg *GeminiConfig, log *logger.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigError{Missing: []string{"GEMINI_API_KEY"}}
	}
	if log == nil {
		log = logger.GetDefault()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	planModel := cfg.PlanModel
	if planModel == "" {
		planModel = "gemini-2.5-flash"
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = planModel
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.0-flash-preview-image-generation"
	}

	return &GeminiService{
		client:      client,
		planModel:   planModel,
		visionModel: visionModel,
		imageModel:  imageModel,
		logger:      log,
	}, nil
}

// Plan asks the planning model for a structured meme plan. The simplified
// flag switches to a stripped-down prompt, used on the retry attempt.
func (s *GeminiService) Plan(ctx context.Context, theme, humorType, restrictions string, simplified bool) (domain.MemePlan, PlanSource, error) {
	var prompt string
	if simplified {
		prompt = prompts.PlanningSimplified(theme, humorType)
	} else {
		prompt = prompts.Planning(theme, humorType, restrictions)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.planModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return domain.MemePlan{}, "", fmt.Errorf("planning call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return domain.MemePlan{}, "", domain.ErrEmptyResponse
	}

	plan, src, err := parsePlan(text)
	if err != nil {
		return domain.MemePlan{}, "", err
	}
	if src == PlanWithDefaults {
		s.logger.WithField(logger.FieldModel, s.planModel).
			Warn("Plan response missing fields, defaults applied")
	}
	return plan, src, nil
}

// parsePlan decodes a planning response defensively. Optional fields that
// are absent get fallback defaults (PlanWithDefaults); a response that is
// not JSON at all, even after stripping surrounding prose, is a hard
// ParseError.
func parsePlan(raw string) (domain.MemePlan, PlanSource, error) {
	var plan domain.MemePlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		// Some models wrap the JSON object in prose. Take the outermost
		// braces and try again.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return domain.MemePlan{}, "", &domain.ParseError{Field: "plan", Err: err}
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &plan); err2 != nil {
			return domain.MemePlan{}, "", &domain.ParseError{Field: "plan", Err: err2}
		}
	}

	src := PlanFromResponse
	if plan.VisualConcept == "" {
		plan.VisualConcept = "a simple, high-contrast scene in classic meme template style"
		src = PlanWithDefaults
	}
	if plan.Mood == "" {
		plan.Mood = "humorous"
		src = PlanWithDefaults
	}
	if plan.Style == "" {
		plan.Style = "photorealistic"
		src = PlanWithDefaults
	}
	if plan.TextBlocksNeeded < 1 {
		plan.TextBlocksNeeded = 2
		src = PlanWithDefaults
	}
	if plan.HumorConcept == "" {
		plan.HumorConcept = plan.VisualConcept
		src = PlanWithDefaults
	}
	return plan, src, nil
}

// textBlocksResponse mirrors the JSON schema requested in the meme text prompt.
type textBlocksResponse struct {
	TextBlocks []domain.TextBlock `json:"text_blocks"`
}

// ComposeText asks the vision model to write meme text for the base image.
// An answer with no text blocks at all is a hard error: there is nothing
// to overlay without it.
func (s *GeminiService) ComposeText(ctx context.Context, base *domain.BaseImage, plan domain.MemePlan) ([]domain.TextBlock, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(base.Bytes, mimeTypeFor(base.Format)),
		genai.NewPartFromText(prompts.MemeText(plan.HumorConcept, plan.TextBlocksNeeded)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.visionModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("text composition call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, domain.ErrEmptyResponse
	}

	blocks, err := parseTextBlocks(text)
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func parseTextBlocks(raw string) ([]domain.TextBlock, error) {
	var parsed textBlocksResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, &domain.ParseError{Field: "text_blocks", Err: err}
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err2 != nil {
			return nil, &domain.ParseError{Field: "text_blocks", Err: err2}
		}
	}

	blocks := parsed.TextBlocks[:0]
	for _, b := range parsed.TextBlocks {
		if b.Text == "" {
			continue
		}
		if b.Position == "" {
			b.Position = "top"
		}
		if b.Color == "" {
			b.Color = "white"
		}
		blocks = append(blocks, b)
	}
	if len(blocks) == 0 {
		return nil, &domain.ParseError{Field: "text_blocks", Err: domain.ErrEmptyResponse}
	}
	return blocks, nil
}

// Overlay asks the image model to burn the text blocks into the base
// image and returns the resulting image bytes. When the model answers
// with text only, domain.ErrNoImageData is returned so the caller can
// take the regeneration fallback.
func (s *GeminiService) Overlay(ctx context.Context, base *domain.BaseImage, blocks []domain.TextBlock) ([]byte, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(base.Bytes, mimeTypeFor(base.Format)),
		genai.NewPartFromText(prompts.Overlay(describeBlocks(blocks))),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("overlay call failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, domain.ErrNoImageData
}

// RegenerationPrompt asks the vision model for a single image-generation
// prompt that reproduces the base image with the meme text applied. Used
// as the overlay fallback path.
func (s *GeminiService) RegenerationPrompt(ctx context.Context, base *domain.BaseImage, blocks []domain.TextBlock) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(base.Bytes, mimeTypeFor(base.Format)),
		genai.NewPartFromText(prompts.Regeneration(describeBlocks(blocks))),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.visionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("regeneration prompt call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.ErrEmptyResponse
	}
	return text, nil
}

// describeBlocks renders text blocks the way the overlay prompt expects,
// e.g. `TOP TEXT: 'WHEN IT COMPILES' in white color with black outline`.
func describeBlocks(blocks []domain.TextBlock) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, fmt.Sprintf("%s TEXT: '%s' in %s color with black outline",
			strings.ToUpper(b.Position), b.Text, b.Color))
	}
	return out
}

func mimeTypeFor(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
