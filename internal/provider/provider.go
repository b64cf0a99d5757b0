// Package provider defines the enrichment provider contract and its
// implementations.
package provider

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/equitle/enrichment-cli/internal/model"
)

// DefaultSearchLimit is the SearchContacts limit used when the caller passes
// a non-positive value.
const DefaultSearchLimit = 5

// Provider looks up company and contact data from an external source.
//
// Not-found answers and upstream failures are reported as results with
// Success false and a human-readable Error. The error return is reserved for
// caller cancellation.
//
// A successful EnrichCompany result carries a non-nil Company and a
// successful contact lookup carries at least one contact. Callers treat a
// Success result without data as not found.
type Provider interface {
	// Name identifies the provider and is recorded as the data source.
	Name() string
	// EnrichCompany looks up a company by its web domain.
	EnrichCompany(ctx context.Context, domain string) (model.EnrichmentResult, error)
	// EnrichContact finds a named person at a company. domain may be empty.
	EnrichContact(ctx context.Context, name, company, domain string) (model.EnrichmentResult, error)
	// SearchContacts lists leadership contacts at a company. domain may be
	// empty, in which case the company name is used.
	SearchContacts(ctx context.Context, company, domain string, limit int) (model.EnrichmentResult, error)
}

// KeyValidator is implemented by providers that can check their credentials
// without enriching anything.
type KeyValidator interface {
	// ValidateKey reports whether the upstream accepts the configured key.
	// A rejected key is a KeyCheck with Valid false, not an error.
	ValidateKey(ctx context.Context) (model.KeyCheck, error)
}

// Registry manages the available providers, keyed by case-insensitive name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider, replacing any provider with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(p.Name())] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[strings.ToLower(strings.TrimSpace(name))]
}

// List returns the names of all registered providers, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

func failed(source, msg string) model.EnrichmentResult {
	return model.EnrichmentResult{Success: false, Error: msg, Source: source}
}
