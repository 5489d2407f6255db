package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/storage"
)

// ReplicateService generates base images through the Replicate predictions
// API: create a prediction, poll until it settles, then download the
// resulting image URL.
type ReplicateService struct {
	client       *resty.Client
	downloader   *resty.Client
	model        string
	fallbackVer  string
	pollInterval time.Duration
	maxWait      time.Duration
	logger       *logger.Logger
}

// ReplicateConfig holds configuration for the Replicate service.
type ReplicateConfig struct {
	APIToken        string
	BaseURL         string
	Model           string // primary model, e.g. "black-forest-labs/flux-1.1-pro"
	FallbackVersion string // version hash of the fallback model
	Timeout         time.Duration
	PollInterval    time.Duration
	MaxWait         time.Duration
}

// NewReplicateService creates a new Replicate service.
func NewReplicateService(cfg *ReplicateConfig, log *logger.Logger) *ReplicateService {
	if log == nil {
		log = logger.GetDefault()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+cfg.APIToken)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	// Image URLs live on a delivery CDN; no credentials go there.
	downloader := resty.New()
	downloader.SetTimeout(timeout)

	model := cfg.Model
	if model == "" {
		model = "black-forest-labs/flux-1.1-pro"
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 5 * time.Minute
	}

	return &ReplicateService{
		client:       client,
		downloader:   downloader,
		model:        model,
		fallbackVer:  cfg.FallbackVersion,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		logger:       log,
	}
}

type predictionRequest struct {
	Version string                 `json:"version,omitempty"`
	Input   map[string]interface{} `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// GenerateBaseImage runs the primary model and, if that fails, the
// fallback model, then downloads the produced image bytes.
func (s *ReplicateService) GenerateBaseImage(ctx context.Context, visualPrompt string) (*domain.BaseImage, error) {
	url, err := s.generatePrimary(ctx, visualPrompt)
	if err != nil {
		if s.fallbackVer == "" {
			return nil, err
		}
		s.logger.WithError(err).WithField(logger.FieldModel, s.model).
			Warn("Primary image model failed, trying fallback model")
		url, err = s.generateFallback(ctx, visualPrompt)
		if err != nil {
			return nil, err
		}
	}

	data, err := s.download(ctx, url)
	if err != nil {
		return nil, err
	}

	return &domain.BaseImage{
		Bytes:     data,
		SourceURL: url,
		Format:    storage.DetectFormat(data),
	}, nil
}

func (s *ReplicateService) generatePrimary(ctx context.Context, prompt string) (string, error) {
	req := predictionRequest{
		Input: map[string]interface{}{
			"prompt":            prompt,
			"aspect_ratio":      "16:9",
			"output_format":     "jpg",
			"safety_tolerance":  2,
			"prompt_upsampling": true,
		},
	}
	return s.run(ctx, "/models/"+s.model+"/predictions", req)
}

func (s *ReplicateService) generateFallback(ctx context.Context, prompt string) (string, error) {
	req := predictionRequest{
		Version: s.fallbackVer,
		Input: map[string]interface{}{
			"prompt":              prompt,
			"width":               1024,
			"height":              576,
			"num_outputs":         1,
			"scheduler":           "K_EULER",
			"num_inference_steps": 20,
			"guidance_scale":      7.5,
		},
	}
	return s.run(ctx, "/predictions", req)
}

// run creates a prediction and waits for it to settle, returning the
// output image URL.
func (s *ReplicateService) run(ctx context.Context, path string, req predictionRequest) (string, error) {
	var pred predictionResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&pred).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("failed to call Replicate API: %w", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return "", fmt.Errorf("Replicate API returned error: HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	return s.wait(ctx, pred)
}

// wait polls the prediction until it succeeds, fails, or the overall wait
// deadline passes.
func (s *ReplicateService) wait(ctx context.Context, pred predictionResponse) (string, error) {
	deadline := time.Now().Add(s.maxWait)
	for {
		switch pred.Status {
		case "succeeded":
			return outputURL(pred.Output)
		case "failed", "canceled":
			return "", fmt.Errorf("prediction %s %s: %s", pred.ID, pred.Status, pred.Error)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("prediction %s timed out after %s", pred.ID, s.maxWait)
		}

		select {
		case <-time.After(s.pollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}

		var next predictionResponse
		httpResp, err := s.client.R().
			SetContext(ctx).
			SetResult(&next).
			Get("/predictions/" + pred.ID)
		if err != nil {
			return "", fmt.Errorf("failed to poll prediction %s: %w", pred.ID, err)
		}
		if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
			return "", fmt.Errorf("prediction poll returned error: HTTP %d: %s",
				httpResp.StatusCode(), string(httpResp.Body()))
		}
		pred = next
	}
}

// outputURL extracts the image URL from a prediction output, which may be
// a single URL string or a list of URLs.
func outputURL(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}
	return "", &domain.ParseError{Field: "prediction output", Err: domain.ErrNoImageData}
}

func (s *ReplicateService) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.downloader.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("image download returned error: HTTP %d", resp.StatusCode())
	}
	data := resp.Body()
	if len(data) == 0 {
		return nil, fmt.Errorf("image download returned empty body from %s", url)
	}

	s.logger.WithFields(logger.Fields{
		logger.FieldSize: len(data),
	}).Debug("Base image downloaded")

	return data, nil
}
