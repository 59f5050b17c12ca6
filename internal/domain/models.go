package domain

import "encoding/json"

// Backend-owned payloads. Only the fields the dashboard inspects are typed;
// free-form maps stay opaque JSON.

type BlobMetadata struct {
	Name          string            `json:"name"`
	ContainerName string            `json:"containerName"`
	ContentLength int64             `json:"contentLength"`
	ContentType   string            `json:"contentType"`
	LastModified  string            `json:"lastModified"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type UploadResponse struct {
	BlobName      string `json:"blobName"`
	ContainerName string `json:"containerName"`
	URL           string `json:"url"`
	ContentLength int64  `json:"contentLength"`
}

type ReportState string

const (
	ReportPending    ReportState = "PENDING"
	ReportProcessing ReportState = "PROCESSING"
	ReportCompleted  ReportState = "COMPLETED"
	ReportFailed     ReportState = "FAILED"
)

type Report struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Status       ReportState     `json:"status"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	ResultPath   string          `json:"resultPath,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	GeneratedAt  string          `json:"generatedAt,omitempty"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

type ReportStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// GenerateReportRequest is the body of POST /api/reports/generate.
type GenerateReportRequest struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type DataEntity struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// DataEntityInput is a DataEntity without the backend-assigned id and timestamps.
type DataEntityInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Page is the pagination envelope returned by the data backend.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// PageRequest carries listing parameters; zero values take the defaults.
type PageRequest struct {
	Page int
	Size int
}

const (
	DefaultPage     = 0
	DefaultPageSize = 20
)

func (p PageRequest) WithDefaults() PageRequest {
	if p.Page < 0 {
		p.Page = DefaultPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	return p
}

// ServiceHealth is one line of the admin health panel.
type ServiceHealth struct {
	Service   ServiceID `json:"service"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	Up        bool      `json:"up"`
	Status    string    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt string    `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}
