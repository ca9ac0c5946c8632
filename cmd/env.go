package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mapping-tomorrow/riskmap-cli/internal/analysis"
	"github.com/mapping-tomorrow/riskmap-cli/internal/cache"
	"github.com/mapping-tomorrow/riskmap-cli/internal/config"
	"github.com/mapping-tomorrow/riskmap-cli/internal/hazard"
	"github.com/mapping-tomorrow/riskmap-cli/internal/poi"
	"github.com/mapping-tomorrow/riskmap-cli/pkg/nominatim"
	"github.com/mapping-tomorrow/riskmap-cli/pkg/overpass"
)

// env bundles the wired pipeline collaborators for one command invocation.
type env struct {
	fetcher *poi.Fetcher
	defs    []hazard.Definition
	closers []func() error
}

// Close releases resources held by the environment (the sqlite cache).
func (e *env) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			zap.L().Warn("close environment", zap.Error(err))
		}
	}
}

// pipeline builds an analysis pipeline for the given place.
func (e *env) pipeline(place string) *analysis.Pipeline {
	return analysis.New(e.fetcher, place, cfg.TagFilter(), e.defs)
}

// newEnv wires the fetcher (clients + cache) and hazard definitions from
// configuration.
func newEnv(c *config.Config) (*env, error) {
	fetchCache, closer, err := newCache(c.Cache)
	if err != nil {
		return nil, err
	}

	resolver := nominatim.New(nominatim.Options{
		BaseURL:   c.Nominatim.BaseURL,
		UserAgent: c.Nominatim.UserAgent,
		Timeout:   c.Nominatim.Timeout,
	})
	querier := overpass.New(overpass.Options{
		BaseURL:   c.Overpass.BaseURL,
		UserAgent: c.Overpass.UserAgent,
		Timeout:   c.Overpass.Timeout,
	})

	defs := hazard.DefaultDefinitions()
	if c.ZonesFile != "" {
		defs, err = hazard.LoadDefinitions(c.ZonesFile)
		if err != nil {
			return nil, err
		}
	}

	e := &env{
		fetcher: poi.NewFetcher(resolver, querier, fetchCache),
		defs:    defs,
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	return e, nil
}

func newCache(c config.CacheConfig) (cache.Cache, func() error, error) {
	switch c.Backend {
	case "", "memory":
		return cache.NewMemory(c.MaxEntries, c.TTL), nil, nil
	case "sqlite":
		sc, err := cache.NewSQLite(c.Path, c.TTL)
		if err != nil {
			return nil, nil, err
		}
		return sc, sc.Close, nil
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, eris.Errorf("unknown cache backend %q", c.Backend)
	}
}
