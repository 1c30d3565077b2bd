package metadata

import (
	"context"
	"fmt"

	"github.com/KestrelPay/router/internal/storage"
)

// CardBINRepository stores BIN metadata keyed by BIN prefix.
type CardBINRepository struct {
	store storage.RelationalStore[CardBIN]
}

// NewCardBINRepository wraps the given store.
func NewCardBINRepository(store storage.RelationalStore[CardBIN]) *CardBINRepository {
	return &CardBINRepository{store: store}
}

// Save upserts a BIN record.
func (r *CardBINRepository) Save(ctx context.Context, bin CardBIN) error {
	return r.store.Save(ctx, bin.BIN, bin)
}

// FindByBIN looks up a BIN prefix; the second return is false on miss.
func (r *CardBINRepository) FindByBIN(ctx context.Context, prefix string) (CardBIN, bool, error) {
	return r.store.FindByID(ctx, prefix)
}

// ListAll returns every stored BIN record.
func (r *CardBINRepository) ListAll(ctx context.Context) ([]CardBIN, error) {
	return r.store.ListAll(ctx)
}

// InterchangeFeeRepository stores interchange fee rules.
type InterchangeFeeRepository struct {
	store storage.RelationalStore[InterchangeFee]
}

// NewInterchangeFeeRepository wraps the given store.
func NewInterchangeFeeRepository(store storage.RelationalStore[InterchangeFee]) *InterchangeFeeRepository {
	return &InterchangeFeeRepository{store: store}
}

// Save upserts a fee rule keyed by its identifying fields.
func (r *InterchangeFeeRepository) Save(ctx context.Context, fee InterchangeFee) error {
	id := fmt.Sprintf("%s:%s:%s:%s", fee.Network, fee.CardType, fee.CardCategory, fee.Region)
	return r.store.Save(ctx, id, fee)
}

// ListAll returns every fee rule.
func (r *InterchangeFeeRepository) ListAll(ctx context.Context) ([]InterchangeFee, error) {
	return r.store.ListAll(ctx)
}
