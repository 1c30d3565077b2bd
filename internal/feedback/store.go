// Package feedback captures completed payments as canonical transaction
// records and stages them for the intelligence aggregator.
package feedback

import (
	"context"
	"sync"

	"github.com/KestrelPay/router/internal/ingestion"
)

// Store stages raw transaction records between collection and drain.
type Store interface {
	Add(record ingestion.RawTransactionRecord)
	All() []ingestion.RawTransactionRecord
	Clear()
}

// MemoryStore is the in-memory staging list. The write path is
// serialized; readers receive copies.
type MemoryStore struct {
	mu      sync.Mutex
	records []ingestion.RawTransactionRecord
}

// NewMemoryStore creates an empty staging store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(record ingestion.RawTransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

func (s *MemoryStore) All() []ingestion.RawTransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ingestion.RawTransactionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// DataProvider exposes the staging store as an ingestion source.
type DataProvider struct {
	store Store
}

// NewDataProvider wraps the store.
func NewDataProvider(store Store) *DataProvider {
	return &DataProvider{store: store}
}

// FetchData returns everything currently staged.
func (p *DataProvider) FetchData(context.Context) ([]ingestion.RawTransactionRecord, error) {
	return p.store.All(), nil
}
