package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

const heartbeatInterval = 30 * time.Second

type pinger interface {
	Ping(context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

// dependency is a named readiness probe checked before consumers start.
type dependency struct {
	name   string
	pinger pinger
}

// namedConsumer pairs a subscription consumer with the label used in logs.
type namedConsumer struct {
	name     string
	consumer consumer
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies []dependency
	Consumers    []namedConsumer
}

type Service struct {
	logg      *logger.Logger
	deps      []dependency
	consumers []namedConsumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for _, c := range params.Consumers {
		if c.consumer == nil {
			return nil, fmt.Errorf("%s consumer is nil", c.name)
		}
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		if dep.pinger == nil {
			continue
		}
		if err := pingDependency(ctx, s.logg, dep.name, dep.pinger.Ping); err != nil {
			return err
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run starts every consumer and blocks until the context ends or one of them
// fails. A failing consumer cancels the others; their errors are combined.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(s.consumers))
	for _, c := range s.consumers {
		c := c
		go func() {
			consumerCtx := s.logg.WithField(runCtx, "consumer", c.name)
			s.logg.Info(consumerCtx, "consumer started")
			err := c.consumer.Run(consumerCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				err = fmt.Errorf("%s consumer: %w", c.name, err)
			} else {
				err = nil
			}
			errCh <- err
		}()
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	var combined error
	remaining := len(s.consumers)
	for remaining > 0 {
		select {
		case <-ticker.C:
			s.logg.Debug(ctx, "worker heartbeat")
		case err := <-errCh:
			remaining--
			if err != nil {
				s.logg.Error(ctx, "consumer stopped", err)
				combined = multierr.Append(combined, err)
				cancel()
			}
		}
	}

	if combined != nil {
		return combined
	}
	return ctx.Err()
}
