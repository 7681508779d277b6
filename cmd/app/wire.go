//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/adlens/internal/bootstrap"
	"github.com/yanqian/adlens/internal/domain/analysis"
	"github.com/yanqian/adlens/internal/domain/auth"
	"github.com/yanqian/adlens/internal/infra/config"
	"github.com/yanqian/adlens/internal/infra/llm/chatgpt"
	httpiface "github.com/yanqian/adlens/internal/interface/http"
	"github.com/yanqian/adlens/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAnalysisConfig,
		provideAuthConfig,
		provideChatGPTClient,
		providePostgresPool,
		provideHistoryRepository,
		provideUserRepository,
		provideObjectStorage,
		provideResultCache,
		analysis.NewService,
		auth.NewService,
		wire.Bind(new(analysis.ChatClient), new(*chatgpt.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
