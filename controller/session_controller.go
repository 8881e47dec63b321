package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/models"
)

func durationMinutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// CreateSession handles POST /api/rag/session.
func (rc *RAGController) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			rc.respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	cfg := rc.defaultCfg
	applySessionOverrides(&cfg, req)

	sess, err := rc.sessions.Create(cfg)
	if err != nil {
		rc.respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateSessionResponse{
		SessionID:        sess.SessionID,
		ExpiresAt:        sess.ExpiresAt,
		MaxDocuments:     sess.Config.MaxDocuments,
		MaxFileSizeBytes: sess.Config.MaxFileSizeBytes,
	})
}

func applySessionOverrides(cfg *domain.SessionConfig, req models.CreateSessionRequest) {
	if req.MaxDocuments > 0 {
		cfg.MaxDocuments = req.MaxDocuments
	}
	if req.MaxFileSizeBytes > 0 {
		cfg.MaxFileSizeBytes = req.MaxFileSizeBytes
	}
	if req.ChunkSize > 0 {
		cfg.ChunkSize = req.ChunkSize
	}
	if req.ChunkOverlap > 0 {
		cfg.ChunkOverlap = req.ChunkOverlap
	}
	if req.TopK > 0 {
		cfg.TopK = req.TopK
	}
	if req.MinSimilarityScore > 0 {
		cfg.MinSimilarityScore = req.MinSimilarityScore
	}
	if req.ChunkingStrategy != "" {
		cfg.DefaultChunkingStrategy = domain.ChunkingStrategy(req.ChunkingStrategy)
	}
	if req.RetrievalStrategy != "" {
		cfg.DefaultStrategy = domain.RetrievalStrategy(req.RetrievalStrategy)
	}
	if req.MaxConcurrentEmbeddings > 0 {
		cfg.MaxConcurrentEmbeddings = req.MaxConcurrentEmbeddings
	}
	if req.SessionTTLMinutes > 0 {
		cfg.SessionTTL = durationMinutes(req.SessionTTLMinutes)
	}
}

// Stats handles GET /api/rag/stats?session_id=… and GET
// /api/rag/session/{id}/stats. The path param takes precedence when both
// are present, which only happens when the route is mounted at the latter.
func (rc *RAGController) Stats(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}
	sess, err := rc.sessions.Get(sessionID)
	if err != nil {
		rc.respondError(c, statusFor(err), err)
		return
	}

	metrics := sess.Metrics.Snapshot()
	cacheStats := rc.embed.CacheStats()
	var hitRate float64
	if total := cacheStats.Hits + cacheStats.Misses; total > 0 {
		hitRate = float64(cacheStats.Hits) / float64(total)
	}

	c.JSON(http.StatusOK, models.SessionStatsResponse{
		SessionID:     sess.SessionID,
		DocumentCount: sess.DocumentCount(),
		ChunkCount:    sess.VectorIndex.Len(),
		CreatedAt:     sess.CreatedAt,
		ExpiresAt:     sess.ExpiresAt,
		Metrics:       metrics,
		CacheHitRate:  hitRate,
	})
}

// GlobalStats handles GET /api/rag/global-stats.
func (rc *RAGController) GlobalStats(c *gin.Context) {
	stats := rc.sessions.GlobalStats()
	c.JSON(http.StatusOK, models.GlobalStatsResponse{
		ActiveSessions: stats.ActiveSessions,
		TotalDocuments: stats.TotalDocuments,
		TotalChunks:    stats.TotalChunks,
	})
}

// DeleteSession handles DELETE /api/rag/session/{id}.
func (rc *RAGController) DeleteSession(c *gin.Context) {
	if !rc.sessions.Remove(c.Param("id")) {
		rc.respondError(c, http.StatusNotFound, domain.ErrSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// Health handles GET /api/rag/health.
func (rc *RAGController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy", Service: "ragcore"})
}
