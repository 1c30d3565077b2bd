package processors

import (
	"sort"

	"github.com/KestrelPay/router/internal/apperrors"
	"github.com/KestrelPay/router/internal/routing"
)

// Registry maps providers to their adapters. It is populated once at
// startup and read-only thereafter, so lookups take no lock.
type Registry struct {
	processors map[routing.Provider]Processor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{processors: make(map[routing.Provider]Processor)}
}

// Register binds a processor to a provider.
func (r *Registry) Register(provider routing.Provider, processor Processor) {
	r.processors[provider] = processor
}

// Get returns the adapter for a provider. A missing registration is a
// configuration error, not a routing outcome.
func (r *Registry) Get(provider routing.Provider) (Processor, error) {
	processor, ok := r.processors[provider]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeProcessorNotRegistered,
			"no processor registered for provider %q", provider)
	}
	return processor, nil
}

// Providers lists registered providers in stable order.
func (r *Registry) Providers() []routing.Provider {
	out := make([]routing.Provider, 0, len(r.processors))
	for provider := range r.processors {
		out = append(out, provider)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultRegistry returns a registry with all four built-in adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(routing.ProviderStripe, NewStripeProcessor(""))
	r.Register(routing.ProviderAdyen, NewAdyenProcessor())
	r.Register(routing.ProviderBraintree, NewBraintreeProcessor())
	r.Register(routing.ProviderInternal, NewInternalMockProcessor())
	return r
}
