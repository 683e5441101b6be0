// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/leadflow/pkg/activity"
	"github.com/dukex/leadflow/pkg/engine"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/flowstore"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/services"
)

// Stack is everything a leadflow binary needs, opened from a Config.
type Stack struct {
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Registry    *registry.Registry
	Processor   *engine.Processor
	Queue       *services.Queue
	Flows       *services.Flow

	closers []func(context.Context) error
}

// NewStack opens stores and clients. On error everything opened so far is closed.
func NewStack(ctx context.Context, logger *slog.Logger, cfg Config) (*Stack, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	s := &Stack{}

	err = s.open(ctx, logger, cfg)
	if err != nil {
		return nil, errors.Join(err, s.Close(ctx))
	}

	return s, nil
}

func (s *Stack) open(ctx context.Context, logger *slog.Logger, cfg Config) error {
	p, err := NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	s.Persistence = p
	s.closers = append(s.closers, p.Close)

	bus, err := NewEventBus(cfg.EventBus, cfg.KafkaBrokers, cfg.ServiceName, logger)
	if err != nil {
		return err
	}

	var publisher eventbus.EventPublisher
	if bus != nil {
		s.EventBus = bus
		publisher = bus
		s.closers = append(s.closers, func(context.Context) error { return bus.Close() })
	}

	locker, closeLocker, err := NewLocker(ctx, logger, cfg.RedisURL)
	if err != nil {
		return err
	}

	s.closers = append(s.closers, func(context.Context) error { return closeLocker() })

	transport, err := NewMailTransport(logger, cfg.MailProvider, cfg.MailEndpoint, cfg.MailAPIKey, cfg.MailTimeout)
	if err != nil {
		return err
	}

	tracer := otelhelper.NoopTracer()
	if cfg.Tracing {
		var shutdown func(context.Context) error

		tracer, shutdown, err = otelhelper.NewTracer(ctx, cfg.ServiceName)
		if err != nil {
			return err
		}

		s.closers = append(s.closers, shutdown)
	}

	var recorder activity.Recorder = activity.Noop{}
	if cfg.Activity {
		recorder = activity.NewLogger(logger, p.ActivityRepository())
	}

	s.Registry = registry.NewDefault(logger, registry.MailSettings{
		Transport:   transport,
		DefaultFrom: cfg.MailFrom,
		Timeout:     cfg.MailTimeout,
	})

	store := flowstore.New(logger, p.FlowLoaders()...)

	s.Processor = engine.NewProcessor(logger, engine.Dependencies{
		Queue:     p.QueueRepository(),
		Leads:     p.LeadRepository(),
		Flows:     store,
		Executors: s.Registry,
		Activity:  recorder,
		Publisher: publisher,
		Tracer:    tracer,
	},
		engine.WithConcurrency(cfg.Concurrency),
		engine.WithStaleAfter(cfg.StaleAfter),
	)

	s.Queue = services.NewQueue(logger, p, s.Processor, locker, cfg.LockTTL)
	s.Flows = services.NewFlow(store, s.Registry)

	return nil
}

// Close releases everything in reverse order of opening.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.closers = nil

	return errors.Join(errs...)
}
