package models

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// ProcessResponse is returned by the document-ingesting endpoints
// (/upload, /content, /batch).
type ProcessResponse struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	DocumentID     string  `json:"document_id,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}

// QueryResponse is returned by /query and /multimodal-query.
type QueryResponse struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	Answer         string  `json:"answer,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}
