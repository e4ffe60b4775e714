package cron

import (
	"context"
	"fmt"

	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

type featureRunner interface {
	RunFeatureBuild(ctx context.Context) error
}

// FeatureRebuildJobParams configure the feature rebuild job.
type FeatureRebuildJobParams struct {
	Logger   *logger.Logger
	Pipeline featureRunner
}

// NewFeatureRebuildJob builds the job that recomputes the feature and
// analytics tables from the full raw store. It runs after ingestion in
// the same cycle so new raw rows land in the derived tables the same
// day.
func NewFeatureRebuildJob(params FeatureRebuildJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pipeline == nil {
		return nil, fmt.Errorf("pipeline required")
	}
	return &featureRebuildJob{
		logg:     params.Logger,
		pipeline: params.Pipeline,
	}, nil
}

type featureRebuildJob struct {
	logg     *logger.Logger
	pipeline featureRunner
}

func (j *featureRebuildJob) Name() string { return "feature-rebuild" }

func (j *featureRebuildJob) Run(ctx context.Context) error {
	if err := j.pipeline.RunFeatureBuild(ctx); err != nil {
		return fmt.Errorf("feature rebuild: %w", err)
	}
	return nil
}
