// Package domain holds the core data model shared by every RAG component:
// documents, chunks, embeddings, sessions, and the metrics/citations derived
// from them.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// NewOpaqueID returns a locally generated opaque identifier of n hex chars.
// n must be even.
func NewOpaqueID(n int) string {
	buf := make([]byte, n/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is a fatal environment error; fall back to
		// time-derived bytes rather than panic mid-request.
		now := time.Now().UnixNano()
		for i := range buf {
			buf[i] = byte(now >> (8 * (i % 8)))
		}
	}
	return hex.EncodeToString(buf)
}

// Document is an immutable user-uploaded text document.
type Document struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Content    string    `json:"content"`
	CharCount  int       `json:"charCount"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// NewDocument constructs a Document with a fresh id and char_count invariant.
func NewDocument(fileName, content string) Document {
	return Document{
		ID:         NewOpaqueID(16),
		FileName:   fileName,
		Content:    content,
		CharCount:  len(content),
		UploadedAt: time.Now(),
	}
}
