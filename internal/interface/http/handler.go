package http

import (
	"log/slog"

	"github.com/yanqian/adlens/internal/domain/analysis"
	"github.com/yanqian/adlens/internal/domain/auth"
	"github.com/yanqian/adlens/internal/infra/config"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	analysisSvc       *analysis.Service
	authSvc           auth.Service
	postLoginRedirect string
	logger            *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, analysisSvc *analysis.Service, authSvc auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		analysisSvc:       analysisSvc,
		authSvc:           authSvc,
		postLoginRedirect: cfg.Auth.Google.PostLoginRedirectURL,
		logger:            logger.With("component", "http.handler"),
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
