// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/yanqian/adlens/internal/bootstrap"
	"github.com/yanqian/adlens/internal/domain/analysis"
	"github.com/yanqian/adlens/internal/domain/auth"
	"github.com/yanqian/adlens/internal/infra/config"
	"github.com/yanqian/adlens/internal/interface/http"
	"github.com/yanqian/adlens/pkg/logger"
)

// Injectors from wire.go:

func initializeApp() (*bootstrap.App, error) {
	configConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	slogLogger := logger.New()
	analysisConfig := provideAnalysisConfig(configConfig)
	pool := providePostgresPool(configConfig, slogLogger)
	historyRepository := provideHistoryRepository(pool)
	objectStorage := provideObjectStorage(configConfig, slogLogger)
	client, err := provideChatGPTClient(configConfig)
	if err != nil {
		return nil, err
	}
	resultCache := provideResultCache(configConfig, slogLogger)
	service := analysis.NewService(analysisConfig, historyRepository, objectStorage, client, resultCache, slogLogger)
	authConfig := provideAuthConfig(configConfig)
	repository := provideUserRepository(pool)
	authService := auth.NewService(authConfig, repository, slogLogger)
	handler := http.NewHandler(configConfig, service, authService, slogLogger)
	server := http.NewRouter(configConfig, handler, authService)
	app := bootstrap.NewApp(configConfig, slogLogger, server)
	return app, nil
}
