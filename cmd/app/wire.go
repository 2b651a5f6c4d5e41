//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/fishcast/internal/bootstrap"
	"github.com/yanqian/fishcast/internal/domain/cache"
	"github.com/yanqian/fishcast/internal/domain/forecast"
	"github.com/yanqian/fishcast/internal/domain/ratelimit"
	"github.com/yanqian/fishcast/internal/infra/config"
	"github.com/yanqian/fishcast/internal/infra/weather/openmeteo"
	httpiface "github.com/yanqian/fishcast/internal/interface/http"
	"github.com/yanqian/fishcast/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideForecastConfig,
		provideFetcherConfig,
		provideRateLimitConfig,
		provideBackends,
		provideValkeyClient,
		provideCacheStore,
		provideWindowStore,
		provideReferenceRepository,
		provideLocationRepository,
		provideWeatherClient,
		provideTideProvider,
		provideTideSynthesizer,
		provideMaintenance,
		cache.New,
		ratelimit.NewLimiter,
		forecast.NewFetcher,
		forecast.NewService,
		wire.Bind(new(forecast.WeatherProvider), new(*openmeteo.Client)),
		wire.Bind(new(forecast.SunProvider), new(*openmeteo.Client)),
		wire.Bind(new(forecast.Cache), new(*cache.Cache)),
		wire.Bind(new(forecast.RateLimiter), new(*ratelimit.Limiter)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
