package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/retrieval"
	"github.com/openrag/ragcore/models"
)

// Query handles POST /api/rag/session/{id}/query, streaming
// domain.QueryEvent events as SSE frames through retrieval, generation, and
// citation, finishing with a metrics-bearing done event. An empty session
// index is not an HTTP error: the stream opens and the first event is a
// QueryEventError.
func (rc *RAGController) Query(c *gin.Context) {
	sess, err := rc.sessions.Get(c.Param("id"))
	if err != nil {
		rc.respondError(c, statusFor(err), err)
		return
	}

	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rc.respondError(c, http.StatusBadRequest, err)
		return
	}

	strategyName := sess.Config.DefaultStrategy
	if req.Strategy != "" {
		strategyName = domain.RetrievalStrategy(req.Strategy)
	}
	strat, err := retrieval.New(strategyName, rc.embed, rc.provider, rc.tokens, rc.log)
	if err != nil {
		rc.respondError(c, http.StatusBadRequest, err)
		return
	}

	topK := sess.Config.TopK
	if req.TopK > 0 {
		topK = req.TopK
	}

	events := rc.orch.Query(c.Request.Context(), sess, strat, req.Query, topK)

	sseHeaders(c)
	c.Status(http.StatusOK)
	for event := range events {
		if err := writeSSEEvent(c, event); err != nil {
			rc.log.Warn("client disconnected during query stream",
				zap.String("request_id", requestID(c)),
				zap.String("session_id", sess.SessionID),
				zap.Error(err),
			)
			return
		}
	}
	writeSSEDone(c)
}
