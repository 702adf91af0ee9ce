package domain

import "time"

// Report formats.
const (
	ReportHTML = "html"
	ReportPDF  = "pdf"
)

// ReportArchive points at an exported report stored in object storage.
type ReportArchive struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportRequest selects the week (any date inside it) and format of an archived report.
type ExportRequest struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Format string `json:"format" validate:"omitempty,oneof=html pdf"`
}
