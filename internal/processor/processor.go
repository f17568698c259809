package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/models"
)

// Source yields queue messages one at a time. Commit acknowledges the
// message most recently returned by Fetch; the processor is strictly
// sequential, so there is never more than one message in flight.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Commit() error
}

// Store performs the idempotent durable write.
type Store interface {
	InsertEvent(ctx context.Context, row models.EventRow) (bool, error)
}

// Processor is the persistence consumer: deserialize, upsert, commit.
// The offset is committed only after the write succeeds, so a crash in
// between causes redelivery of an event the upsert already absorbs.
type Processor struct {
	src Source
	st  Store
	log zerolog.Logger

	// skipOnError trades possible event loss for liveness: a failing
	// message is logged and committed instead of stopping the loop.
	// The default (false) stops the processor and relies on
	// at-least-once redelivery after restart.
	skipOnError bool
}

// New builds a processor. skipOnError selects the per-message failure
// policy (see config.OnErrorSkip).
func New(src Source, st Store, skipOnError bool, log zerolog.Logger) *Processor {
	return &Processor{src: src, st: st, skipOnError: skipOnError, log: log}
}

// Run consumes until the context is cancelled (clean shutdown, returns
// nil) or a failure stops the loop under the crash policy.
func (p *Processor) Run(ctx context.Context) error {
	for {
		value, err := p.src.Fetch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := p.handle(ctx, value); err != nil {
			if !p.skipOnError {
				return err
			}
			p.log.Error().Err(err).Msg("skipping message")
			if err := p.src.Commit(); err != nil {
				return err
			}
		}
	}
}

func (p *Processor) handle(ctx context.Context, value []byte) error {
	row, err := models.EventRowFromJSON(value)
	if err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}

	inserted, err := p.st.InsertEvent(ctx, row)
	if err != nil {
		return err
	}
	if inserted {
		p.log.Info().Str("event_id", row.EventID.String()).Msg("event persisted")
	} else {
		// Duplicate delivery is expected under at-least-once.
		p.log.Debug().Str("event_id", row.EventID.String()).Msg("duplicate event absorbed")
	}

	return p.src.Commit()
}
