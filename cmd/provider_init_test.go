package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitle/enrichment-cli/internal/config"
	"github.com/equitle/enrichment-cli/internal/provider"
)

func enrichmentConfig(key string) *config.Config {
	return &config.Config{
		Apollo: config.ApolloConfig{
			Key:          key,
			BaseURL:      "http://127.0.0.1:1",
			TimeoutSecs:  5,
			RateLimitRPS: 2,
		},
		Enrichment: config.EnrichmentConfig{
			Provider:     "apollo",
			DelayMs:      250,
			ContactLimit: 3,
		},
	}
}

func TestInitProvider_MissingKey(t *testing.T) {
	cfg = enrichmentConfig("")

	env, err := initProvider()
	assert.Nil(t, env)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestInitProvider_Apollo(t *testing.T) {
	cfg = enrichmentConfig("test-key")

	env, err := initProvider()
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Equal(t, provider.ApolloName, env.Provider.Name())
	assert.NotEmpty(t, env.Ranker.SearchTitles())
}

func TestInitProvider_CustomTitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search_titles: [Founder, Owner]\nranks:\n  - score: 100\n    match: [founder]\n"), 0o644))

	cfg = enrichmentConfig("test-key")
	cfg.Enrichment.TitlesPath = path

	env, err := initProvider()
	require.NoError(t, err)
	assert.Equal(t, []string{"Founder", "Owner"}, env.Ranker.SearchTitles())
	assert.Equal(t, 100, env.Ranker.Score("Co-Founder"))
}

func TestInitProvider_MissingTitlesFile(t *testing.T) {
	cfg = enrichmentConfig("test-key")
	cfg.Enrichment.TitlesPath = filepath.Join(t.TempDir(), "missing.yaml")

	env, err := initProvider()
	assert.Nil(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seniority: read titles")
}

func TestInitProvider_UnsupportedProvider(t *testing.T) {
	cfg = enrichmentConfig("test-key")
	cfg.Enrichment.Provider = "clearbit"

	_, err := initProvider()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `enrichment.provider "clearbit" is not supported`)
}

func TestNewEnricher_FromConfig(t *testing.T) {
	cfg = enrichmentConfig("test-key")

	env, err := initProvider()
	require.NoError(t, err)

	e := newEnricher(env, nil)
	require.NotNil(t, e)
	assert.Equal(t, provider.ApolloName, e.Provider().Name())
}
