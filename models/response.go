package models

import (
	"time"

	"github.com/openrag/ragcore/internal/domain"
)

// ErrorResponse is the uniform shape of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionResponse is returned by POST /api/rag/session.
type CreateSessionResponse struct {
	SessionID        string    `json:"sessionId"`
	ExpiresAt        time.Time `json:"expiresAt"`
	MaxDocuments     int       `json:"maxDocuments"`
	MaxFileSizeBytes int       `json:"maxFileSizeBytes"`
}

// SessionStatsResponse is returned by GET /api/rag/session/{id}/stats.
type SessionStatsResponse struct {
	SessionID     string         `json:"sessionId"`
	DocumentCount int            `json:"documentCount"`
	ChunkCount    int            `json:"chunkCount"`
	CreatedAt     time.Time      `json:"createdAt"`
	ExpiresAt     time.Time      `json:"expiresAt"`
	Metrics       domain.Metrics `json:"metrics"`
	CacheHitRate  float64        `json:"cacheHitRate"`
}

// GlobalStatsResponse is returned by GET /api/rag/global-stats.
type GlobalStatsResponse struct {
	ActiveSessions int   `json:"activeSessions"`
	TotalDocuments int   `json:"totalDocuments"`
	TotalChunks    int64 `json:"totalChunks"`
}

// HealthResponse is returned by GET /api/rag/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
