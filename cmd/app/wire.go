//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/moonwatch/internal/bootstrap"
	"github.com/yanqian/moonwatch/internal/domain/moonrise"
	"github.com/yanqian/moonwatch/internal/infra/config"
	"github.com/yanqian/moonwatch/internal/infra/geocode/ipgeolocation"
	"github.com/yanqian/moonwatch/internal/infra/timezone"
	httpiface "github.com/yanqian/moonwatch/internal/interface/http"
	"github.com/yanqian/moonwatch/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideMoonriseConfig,
		provideEngines,
		provideGeocoder,
		provideLocationStore,
		timezone.NewResolver,
		moonrise.NewScanner,
		moonrise.NewService,
		wire.Bind(new(moonrise.LocationResolver), new(*ipgeolocation.Client)),
		wire.Bind(new(moonrise.ZoneFinder), new(*timezone.Resolver)),
		wire.Bind(new(moonrise.RangeScanner), new(*moonrise.Scanner)),
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
