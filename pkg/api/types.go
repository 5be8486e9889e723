package api

import "time"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status           string          `json:"status"`
	Timestamp        time.Time       `json:"timestamp"`
	LastIndexedBlock *uint64         `json:"last_indexed_block,omitempty"`
	Mode             string          `json:"mode,omitempty"`
	Indexers         []IndexerStatus `json:"indexers"`
}

// IndexerStatus describes one registered indexer.
type IndexerStatus struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	StartBlock uint64 `json:"start_block"`
}

// KindInfo describes one entity kind and its stored record count.
type KindInfo struct {
	Kind     string   `json:"kind"`
	Contract string   `json:"contract"`
	Event    string   `json:"event"`
	Fields   []string `json:"fields"`
	Count    int      `json:"count"`
}

// CountResponse is the number of stored records of a kind.
type CountResponse struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// EntityResponse is a stored record with every field rendered as a string.
type EntityResponse struct {
	Kind   string            `json:"kind"`
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// FieldResponse is a single rendered field of a stored record.
type FieldResponse struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Field string `json:"field"`
	Value string `json:"value"`
}
