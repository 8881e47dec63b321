package controller

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every RAG endpoint under /api/rag on router.
func RegisterRoutes(router *gin.Engine, rc *RAGController) {
	router.Use(RequestID())

	api := router.Group("/api/rag")
	api.GET("/health", rc.Health)
	api.GET("/stats", rc.Stats)
	api.GET("/global-stats", rc.GlobalStats)
	api.POST("/session", rc.CreateSession)
	api.DELETE("/session/:id", rc.DeleteSession)
	api.GET("/session/:id/stats", rc.Stats)
	api.POST("/session/:id/ingest", rc.Ingest)
	api.POST("/session/:id/query", rc.Query)
}
