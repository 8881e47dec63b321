// Package controller implements the gin HTTP handlers for the RAG API:
// session-scoped ingest/query endpoints with SSE streaming, plus session
// lifecycle and stats routes.
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
	"github.com/openrag/ragcore/internal/orchestrator"
	"github.com/openrag/ragcore/internal/provider"
	"github.com/openrag/ragcore/internal/session"
	"github.com/openrag/ragcore/internal/tokencount"
	"github.com/openrag/ragcore/models"
)

// RAGController holds every dependency the HTTP handlers need: a thin layer
// translating gin.Context into calls against the session manager and
// orchestrator.
type RAGController struct {
	sessions   *session.Manager
	orch       *orchestrator.Orchestrator
	embed      *embedding.Client
	provider   provider.Provider
	tokens     tokencount.Estimator
	defaultCfg domain.SessionConfig
	log        *zap.Logger
}

// New builds a RAGController.
func New(
	sessions *session.Manager,
	orch *orchestrator.Orchestrator,
	embed *embedding.Client,
	prov provider.Provider,
	tokens tokencount.Estimator,
	defaultCfg domain.SessionConfig,
	log *zap.Logger,
) *RAGController {
	return &RAGController{
		sessions:   sessions,
		orch:       orch,
		embed:      embed,
		provider:   prov,
		tokens:     tokens,
		defaultCfg: defaultCfg,
		log:        log,
	}
}

func (rc *RAGController) respondError(c *gin.Context, status int, err error) {
	rc.log.Warn("request failed",
		zap.String("request_id", requestID(c)),
		zap.Int("status", status),
		zap.Error(err),
	)
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

// statusFor maps a domain sentinel error to its HTTP status, defaulting to
// 500 for anything unrecognized.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
