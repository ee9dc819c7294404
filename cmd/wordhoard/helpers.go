package main

import (
	"fmt"
	"os"
	"time"

	"github.com/wordhoard/wordhoard/internal/config"
	"github.com/wordhoard/wordhoard/internal/definition"
	"github.com/wordhoard/wordhoard/internal/source"
	"github.com/wordhoard/wordhoard/internal/source/cambridge"
	"github.com/wordhoard/wordhoard/internal/source/freedict"
	"github.com/wordhoard/wordhoard/internal/source/wiktionary"
	"github.com/wordhoard/wordhoard/internal/source/wordnik"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// newEngine wires the adapters in priority order, the rate limiter, the
// sqlite result cache and any configured override file into a
// resolution engine. A non-empty only restricts the engine to that one
// source. The returned cleanup closes the cache.
func newEngine(cfg *config.Config, only string) (*definition.Engine, func() error, error) {
	configs := source.DefaultConfigs()
	adapters := map[string]definition.Adapter{
		source.NameCambridge:  cambridge.New(configs[source.NameCambridge]),
		source.NameFreeDict:   freedict.New(configs[source.NameFreeDict]),
		source.NameWordnik:    wordnik.New(configs[source.NameWordnik], cfg.Sources.Wordnik.APIKey),
		source.NameWiktionary: wiktionary.New(configs[source.NameWiktionary]),
	}

	var registrations []definition.Registration
	for _, name := range source.PriorityOrder() {
		if only != "" && name != only {
			continue
		}
		registrations = append(registrations, definition.Registration{
			Adapter: adapters[name],
			Config:  configs[name],
		})
	}

	cache, err := definition.OpenResultCache(cfg.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("definition.OpenResultCache > %w", err)
	}

	opts := []definition.EngineOption{
		definition.WithCacheMaxAge(time.Duration(cfg.Cache.MaxAgeHours) * time.Hour),
		definition.WithAdapterTimeout(time.Duration(cfg.Sources.AdapterTimeoutSeconds) * time.Second),
	}
	if cfg.Overrides.File != "" {
		file, err := os.Open(cfg.Overrides.File)
		if err != nil {
			_ = cache.Close()
			return nil, nil, fmt.Errorf("os.Open(overrides) > %w", err)
		}
		defer file.Close()

		overrides, err := definition.LoadOverrides(file)
		if err != nil {
			_ = cache.Close()
			return nil, nil, fmt.Errorf("definition.LoadOverrides > %w", err)
		}
		opts = append(opts, definition.WithOverrides(overrides))
	}

	engine := definition.NewEngine(registrations, definition.NewRateLimiter(), cache, opts...)
	return engine, cache.Close, nil
}
