package service

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/prompts"
	"github.com/timmy/memeforge/internal/storage"
)

// Planner produces a structured meme plan from the request parameters.
type Planner interface {
	Plan(ctx context.Context, theme, humorType, restrictions string, simplified bool) (domain.MemePlan, PlanSource, error)
}

// ImageGenerator renders an image from a prompt.
type ImageGenerator interface {
	GenerateBaseImage(ctx context.Context, visualPrompt string) (*domain.BaseImage, error)
}

// TextComposer writes the meme text for a base image.
type TextComposer interface {
	ComposeText(ctx context.Context, base *domain.BaseImage, plan domain.MemePlan) ([]domain.TextBlock, error)
}

// Overlayer burns text blocks into the base image.
type Overlayer interface {
	Overlay(ctx context.Context, base *domain.BaseImage, blocks []domain.TextBlock) ([]byte, error)
}

// PromptRefiner turns a failed overlay into a regeneration prompt for the
// image generator. Optional: the pipeline works without one, it just loses
// the overlay fallback path.
type PromptRefiner interface {
	RegenerationPrompt(ctx context.Context, base *domain.BaseImage, blocks []domain.TextBlock) (string, error)
}

// PipelineService drives the four-stage generation pipeline, one meme
// index at a time. Stage failures are isolated per index: the run always
// produces one Outcome per requested meme.
type PipelineService struct {
	planner Planner
	images  ImageGenerator
	texts   TextComposer
	overlay Overlayer
	refiner PromptRefiner // may be nil
	store   storage.ArtifactStore
	retry   RetryPolicy
	logger  *logger.Logger
	now     func() time.Time
}

// NewPipelineService creates a new pipeline service. refiner may be nil.
func NewPipelineService(
	planner Planner,
	images ImageGenerator,
	texts TextComposer,
	overlay Overlayer,
	refiner PromptRefiner,
	store storage.ArtifactStore,
	retry RetryPolicy,
	log *logger.Logger,
) *PipelineService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &PipelineService{
		planner: planner,
		images:  images,
		texts:   texts,
		overlay: overlay,
		refiner: refiner,
		store:   store,
		retry:   retry,
		logger:  log,
		now:     time.Now,
	}
}

// Generate runs the pipeline for every requested index and returns exactly
// req.Count outcomes, ordered 1..count. A failed index never aborts the
// run; its outcome records the failing stage and cause.
func (s *PipelineService) Generate(ctx context.Context, req domain.MemeRequest) []domain.Outcome {
	outcomes := make([]domain.Outcome, 0, req.Count)
	for index := 1; index <= req.Count; index++ {
		log := s.logger.WithField(logger.FieldMemeIndex, index)
		log.Infof("Generating meme %d/%d", index, req.Count)

		outcome := s.generateOne(log.WithContext(ctx), req, index)
		if outcome.Err != nil {
			log.WithError(outcome.Err).
				WithField(logger.FieldStage, string(outcome.Stage)).
				Error("Meme generation failed")
		} else {
			log.WithFields(logger.Fields{
				logger.FieldPath:       outcome.FinalPath,
				logger.FieldDurationMs: outcome.Duration.Milliseconds(),
			}).Info("Meme generation completed")
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *PipelineService) generateOne(ctx context.Context, req domain.MemeRequest, index int) domain.Outcome {
	start := s.now()
	// One timestamp per index keeps the base/final artifact pair correlated.
	ts := storage.Timestamp(start)
	log := logger.FromContext(ctx)
	outcome := domain.Outcome{Index: index}

	fail := func(stage domain.Stage, err error) domain.Outcome {
		outcome.Stage = stage
		outcome.Err = &domain.StageError{Stage: stage, Index: index, Err: err}
		outcome.Duration = s.now().Sub(start)
		return outcome
	}

	// Stage 1: plan the meme. The retry attempt uses the simplified prompt.
	var plan domain.MemePlan
	err := s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		p, _, err := s.planner.Plan(ctx, req.Theme, req.HumorType, req.Restrictions, attempt > 0)
		if err != nil {
			log.WithError(err).WithField(logger.FieldAttempt, attempt+1).Warn("Planning attempt failed")
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return fail(domain.StagePlan, err)
	}

	// Stage 2: generate the base image.
	visualPrompt := prompts.BaseImage(plan.VisualConcept, plan.VisualElements, plan.Mood, plan.Style)
	var base *domain.BaseImage
	err = s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		b, err := s.images.GenerateBaseImage(ctx, visualPrompt)
		if err != nil {
			log.WithError(err).WithField(logger.FieldAttempt, attempt+1).Warn("Base image attempt failed")
			return err
		}
		base = b
		return nil
	})
	if err != nil {
		return fail(domain.StageBaseImage, err)
	}

	// The base image is a side artifact, not the deliverable: a failed
	// save is logged and the pipeline continues.
	if basePath, err := s.store.Save(ctx, storage.CategoryBaseImage, index, ts, base.Bytes); err != nil {
		log.WithError(err).Warn("Failed to save base image, continuing")
	} else {
		outcome.BasePath = basePath
	}

	// Stage 3: compose the meme text.
	var blocks []domain.TextBlock
	err = s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		b, err := s.texts.ComposeText(ctx, base, plan)
		if err != nil {
			log.WithError(err).WithField(logger.FieldAttempt, attempt+1).Warn("Text composition attempt failed")
			return err
		}
		blocks = b
		return nil
	})
	if err != nil {
		return fail(domain.StageText, err)
	}

	// Stage 4: overlay the text. When the overlay model yields no image
	// the attempt falls back to regenerating the scene with the text
	// burned in, through the image generator.
	var finalBytes []byte
	err = s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		data, err := s.overlay.Overlay(ctx, base, blocks)
		if err == nil {
			finalBytes = data
			return nil
		}
		if s.refiner == nil || !errors.Is(err, domain.ErrNoImageData) {
			log.WithError(err).WithField(logger.FieldAttempt, attempt+1).Warn("Overlay attempt failed")
			return err
		}

		log.Info("Overlay returned no image, regenerating with text burned in")
		regenPrompt, rerr := s.refiner.RegenerationPrompt(ctx, base, blocks)
		if rerr != nil {
			return errors.Join(err, rerr)
		}
		regenerated, gerr := s.images.GenerateBaseImage(ctx, regenPrompt)
		if gerr != nil {
			return errors.Join(err, gerr)
		}
		finalBytes = regenerated.Bytes
		return nil
	})
	if err != nil {
		return fail(domain.StageOverlay, err)
	}

	// The final meme is the deliverable: a failed save fails the index.
	finalPath, err := s.store.Save(ctx, storage.CategoryFinalMeme, index, ts, finalBytes)
	if err != nil {
		return fail(domain.StageSave, err)
	}

	outcome.FinalPath = finalPath
	outcome.Duration = s.now().Sub(start)
	return outcome
}
