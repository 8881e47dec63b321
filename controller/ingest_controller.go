package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/models"
)

// Ingest handles POST /api/rag/session/{id}/ingest, streaming
// domain.IngestProgressUpdate events as SSE frames until the document is
// fully indexed or an Error update terminates the stream — including
// pre-flight validation failures, which are reported on the stream rather
// than as an HTTP error.
func (rc *RAGController) Ingest(c *gin.Context) {
	sess, err := rc.sessions.Get(c.Param("id"))
	if err != nil {
		rc.respondError(c, statusFor(err), err)
		return
	}

	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rc.respondError(c, http.StatusBadRequest, err)
		return
	}

	doc := domain.NewDocument(req.FileName, req.Content)
	updates := rc.orch.Ingest(c.Request.Context(), sess, doc, domain.ChunkingStrategy(req.ChunkingStrategy))

	sseHeaders(c)
	c.Status(http.StatusOK)
	for update := range updates {
		if err := writeSSEEvent(c, update); err != nil {
			rc.log.Warn("client disconnected during ingest stream",
				zap.String("request_id", requestID(c)),
				zap.String("session_id", sess.SessionID),
				zap.Error(err),
			)
			return
		}
	}
	writeSSEDone(c)
}
