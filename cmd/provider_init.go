package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/equitle/enrichment-cli/internal/enrich"
	"github.com/equitle/enrichment-cli/internal/provider"
	"github.com/equitle/enrichment-cli/internal/resilience"
	"github.com/equitle/enrichment-cli/internal/seniority"
	"github.com/equitle/enrichment-cli/pkg/apollo"
)

// providerEnv is the configured provider plus the ranker its contact
// searches are filtered and ordered by.
type providerEnv struct {
	Provider provider.Provider
	Ranker   *seniority.Ranker
}

// initProvider validates enrichment settings and builds the configured
// provider. A missing API key yields config.ErrMissingCredentials.
func initProvider() (*providerEnv, error) {
	if err := cfg.Validate("enrichment"); err != nil {
		return nil, err
	}

	ranker, err := seniority.Load(cfg.Enrichment.TitlesPath)
	if err != nil {
		return nil, err
	}

	reg := buildRegistry(ranker)
	p := reg.Get(cfg.Enrichment.Provider)
	if p == nil {
		return nil, eris.Errorf("unknown enrichment provider %q (available: %v)", cfg.Enrichment.Provider, reg.List())
	}

	zap.L().Debug("provider initialized",
		zap.String("provider", p.Name()),
		zap.Strings("titles", ranker.SearchTitles()),
	)
	return &providerEnv{Provider: p, Ranker: ranker}, nil
}

// buildRegistry registers every provider that has credentials configured.
func buildRegistry(ranker *seniority.Ranker) *provider.Registry {
	reg := provider.NewRegistry()

	if cfg.Apollo.Key != "" {
		timeout := time.Duration(cfg.Apollo.TimeoutSecs) * time.Second
		clientOpts := []apollo.Option{}
		if cfg.Apollo.BaseURL != "" {
			clientOpts = append(clientOpts, apollo.WithBaseURL(cfg.Apollo.BaseURL))
		}
		if timeout > 0 {
			clientOpts = append(clientOpts, apollo.WithTimeout(timeout))
		}

		providerOpts := []provider.ApolloOption{
			provider.WithTitles(ranker.SearchTitles()),
			provider.WithPolicy(resilience.PolicyFromConfig(cfg.Resilience, cfg.Apollo.RateLimitRPS)),
		}
		if timeout > 0 {
			providerOpts = append(providerOpts, provider.WithCallTimeout(timeout))
		}

		reg.Register(provider.NewApollo(apollo.NewClient(cfg.Apollo.Key, clientOpts...), providerOpts...))
	}

	return reg
}

// newEnricher builds an Enricher from config. runLog may be nil.
func newEnricher(env *providerEnv, runLog enrich.RunLog) *enrich.Enricher {
	return enrich.New(env.Provider, enrich.Options{
		Delay:        time.Duration(cfg.Enrichment.DelayMs) * time.Millisecond,
		ContactLimit: cfg.Enrichment.ContactLimit,
		Ranker:       env.Ranker,
		RunLog:       runLog,
	})
}
