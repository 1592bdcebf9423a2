package ecs

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// systemScheduler runs the systems of one hook sequentially, in registration order.
type systemScheduler struct {
	systems []*systemMetadata
}

// newSystemScheduler creates a new system scheduler.
func newSystemScheduler() systemScheduler {
	return systemScheduler{systems: make([]*systemMetadata, 0)}
}

// register appends a system to the schedule.
func (s *systemScheduler) register(meta *systemMetadata) {
	s.systems = append(s.systems, meta)
}

// bind resolves the resources of systems that haven't run yet.
func (s *systemScheduler) bind() error {
	for _, system := range s.systems {
		if err := system.bind(); err != nil {
			return err
		}
	}
	return nil
}

// run executes every system. Systems that finish are appended to ran so the caller can commit their
// commands in execution order. It stops at the first system that returns an error.
func (s *systemScheduler) run(ctx context.Context, tracer trace.Tracer, ran []*systemMetadata) (
	[]*systemMetadata, error,
) {
	for _, system := range s.systems {
		_, span := tracer.Start(ctx, "system.run."+system.name,
			trace.WithAttributes(attribute.String("system", system.name)))

		start := time.Now()
		err := system.fn()
		elapsed := time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			system.logger.Error().Err(err).Dur("duration", elapsed).Msg("system failed")
			return ran, eris.Wrapf(err, "system %s failed", system.name)
		}
		span.End()

		system.logger.Trace().Dur("duration", elapsed).Msg("system ran")
		ran = append(ran, system)
	}
	return ran, nil
}
