package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
	"github.com/yanqian/moonwatch/internal/infra/config"
	"github.com/yanqian/moonwatch/internal/infra/ephemeris/fallback"
	"github.com/yanqian/moonwatch/internal/infra/ephemeris/meeus"
	"github.com/yanqian/moonwatch/internal/infra/geocode/ipgeolocation"
	"github.com/yanqian/moonwatch/internal/infra/locationstore"
	httpiface "github.com/yanqian/moonwatch/internal/interface/http"
)

func provideMoonriseConfig(cfg *config.Config) moonrise.Config {
	return moonrise.Config{
		MaxDays:     cfg.Scanner.MaxDays,
		DefaultDays: cfg.Scanner.DefaultDays,
		Workers:     cfg.Scanner.Workers,
		CacheTTL:    cfg.LocationCache.TTL,
	}
}

func provideEngines() moonrise.Engines {
	return moonrise.Engines{
		Primary:  meeus.NewEngine(),
		Fallback: fallback.NewEngine(),
	}
}

func provideGeocoder(cfg *config.Config, logger *slog.Logger) *ipgeolocation.Client {
	client := ipgeolocation.NewClient(ipgeolocation.Config{
		BaseURL:         cfg.Geolocation.BaseURL,
		APIKey:          cfg.Geolocation.APIKey,
		Timeout:         cfg.Geolocation.Timeout,
		BreakerFailures: cfg.Geolocation.BreakerFailures,
		BreakerCooldown: cfg.Geolocation.BreakerCooldown,
	}, logger)
	if !client.HasAPIKey() {
		logger.Warn("geolocation api key not set, location lookups will fail")
	}
	return client
}

func provideLocationStore(cfg *config.Config, logger *slog.Logger) (moonrise.LocationStore, func()) {
	noop := func() {}
	if !cfg.LocationCache.Valkey.Enabled {
		return locationstore.NewMemoryStore(), noop
	}
	opt, err := buildValkeyOptions(cfg.LocationCache.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return locationstore.NewMemoryStore(), noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return locationstore.NewMemoryStore(), noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return locationstore.NewMemoryStore(), noop
	}
	logger.Info("location valkey store enabled", "addr", cfg.LocationCache.Valkey.Addr)
	return locationstore.NewValkeyStore(client, cfg.LocationCache.Valkey.Prefix), client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideHandler(cfg *config.Config, svc moonrise.Service, geocoder *ipgeolocation.Client, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(svc, geocoder, cfg.Scanner.Timeout, logger)
}
