package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

const defaultOutboxRetention = 30 * 24 * time.Hour

type retentionDeleter interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type deadLetterDeleter interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	Outbox      retentionDeleter
	DeadLetters deadLetterDeleter
	Retention   time.Duration
}

// NewOutboxRetentionJob prunes published outbox rows and old dead letters.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &outboxRetentionJob{
		logg:        params.Logger,
		outbox:      params.Outbox,
		deadLetters: params.DeadLetters,
		retention:   retention,
		now:         time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	outbox      retentionDeleter
	deadLetters deadLetterDeleter
	retention   time.Duration
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox_retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var errs error

	published, err := j.outbox.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete published outbox rows: %w", err))
	}

	var deadLetters int64
	if j.deadLetters != nil {
		deadLetters, err = j.deadLetters.DeleteBefore(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete dead letters: %w", err))
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":               cutoff,
		"published_deleted":    published,
		"dead_letters_deleted": deadLetters,
	}), "outbox retention cleanup complete")
	return errs
}
