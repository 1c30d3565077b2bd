package feedback

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/ingestion"
)

// Drainer periodically feeds staged feedback into the ingestor and
// clears the staging store. Draining is pull-based so charge latency is
// unaffected by aggregation.
type Drainer struct {
	store    Store
	ingestor *ingestion.Ingestor
	interval time.Duration
	logger   zerolog.Logger
}

// NewDrainer builds a drainer with the given tick interval.
func NewDrainer(store Store, ingestor *ingestion.Ingestor, interval time.Duration, logger zerolog.Logger) *Drainer {
	return &Drainer{store: store, ingestor: ingestor, interval: interval, logger: logger}
}

// Run loops until ctx is cancelled, draining once per tick.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info().Dur("interval", d.interval).Msg("feedback.drainer_started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("feedback.drainer_stopped")
			return
		case <-ticker.C:
			if err := d.DrainOnce(ctx); err != nil {
				d.logger.Error().Err(err).Msg("feedback.drain_failed")
			}
		}
	}
}

// DrainOnce pushes the current staging contents through the ingestor
// and clears the store on success.
func (d *Drainer) DrainOnce(ctx context.Context) error {
	records := d.store.All()
	if len(records) == 0 {
		return nil
	}

	rows, err := d.ingestor.IngestRecords(ctx, records)
	if err != nil {
		return err
	}

	d.store.Clear()
	d.logger.Debug().
		Int("records", len(records)).
		Int("performance_rows", rows).
		Msg("feedback.drained")
	return nil
}
