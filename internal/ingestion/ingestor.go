package ingestion

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/storage"
)

// Analyzer folds canonical records into performance results. Satisfied
// by intelligence.Aggregator.
type Analyzer interface {
	Analyze(records []RawTransactionRecord) []routing.ProviderPerformance
}

// PerformanceSink receives aggregated results. Satisfied by
// intelligence.PerformanceRepository.
type PerformanceSink interface {
	Save(ctx context.Context, perf routing.ProviderPerformance) error
}

// Ingestor orchestrates one ingestion pass: fetch raw records from a
// provider, analyze them, and persist the resulting performance rows.
type Ingestor struct {
	sink     PerformanceSink
	analyzer Analyzer
	archive  storage.LogAppendStore[RawTransactionRecord]
	logger   zerolog.Logger
}

// NewIngestor builds an ingestor.
func NewIngestor(sink PerformanceSink, analyzer Analyzer, logger zerolog.Logger) *Ingestor {
	return &Ingestor{sink: sink, analyzer: analyzer, logger: logger}
}

// WithArchive returns a copy that appends every ingested batch to the
// given raw-record log before aggregation.
func (ing *Ingestor) WithArchive(archive storage.LogAppendStore[RawTransactionRecord]) *Ingestor {
	clone := *ing
	clone.archive = archive
	return &clone
}

// IngestFrom runs one pass over the given data provider. An empty batch
// is a no-op. Returns the number of performance rows written.
func (ing *Ingestor) IngestFrom(ctx context.Context, provider DataProvider) (int, error) {
	records, err := provider.FetchData(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	if ing.archive != nil {
		if err := ing.archive.BatchAppend(ctx, records); err != nil {
			ing.logger.Warn().Err(err).Msg("ingestion.archive_append_failed")
		}
	}

	results := ing.analyzer.Analyze(records)
	for _, result := range results {
		if err := ing.sink.Save(ctx, result); err != nil {
			return 0, err
		}
	}

	ing.logger.Info().
		Int("records", len(records)).
		Int("performance_rows", len(results)).
		Msg("ingestion.batch_complete")
	return len(results), nil
}

// IngestRecords runs one pass over an already-parsed batch.
func (ing *Ingestor) IngestRecords(ctx context.Context, records []RawTransactionRecord) (int, error) {
	return ing.IngestFrom(ctx, staticProvider(records))
}

type staticProvider []RawTransactionRecord

func (p staticProvider) FetchData(context.Context) ([]RawTransactionRecord, error) {
	return p, nil
}
