package dto

import "time"

// DocumentItem is the listing view of an uploaded study material.
type DocumentItem struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	ClassLevel   string    `json:"class_level"`
	Subject      string    `json:"subject"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UploadedBy   string    `json:"uploaded_by,omitempty"`
	DownloadPath string    `json:"download_path"`
}
