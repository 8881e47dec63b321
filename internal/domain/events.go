package domain

// IngestProgressUpdate is emitted by the ingestion pipeline at each
// checkpoint as a document moves through chunking, embedding, and
// indexing.
type IngestProgressUpdate struct {
	Phase           string  `json:"phase"`
	CurrentStep     int     `json:"currentStep"`
	TotalSteps      int     `json:"totalSteps"`
	Message         string  `json:"message"`
	PercentComplete float64 `json:"percentComplete"`
}

const IngestTotalSteps = 4

// QueryEventType enumerates the tagged-union variants of QueryEvent.
type QueryEventType string

const (
	QueryEventRetrieval  QueryEventType = "retrieval"
	QueryEventGeneration QueryEventType = "generation"
	QueryEventCitation   QueryEventType = "citation"
	QueryEventDone       QueryEventType = "done"
	QueryEventError      QueryEventType = "error"
)

// QueryEvent is the tagged union streamed by orchestrator.Query. Only the
// fields relevant to Type are populated.
type QueryEvent struct {
	Type            QueryEventType    `json:"type"`
	Content         string            `json:"content,omitempty"`
	RetrievedChunks []RetrievalResult `json:"retrievedChunks,omitempty"`
	Citation        *Citation         `json:"citation,omitempty"`
	Metrics         *Metrics          `json:"metrics,omitempty"`
}
