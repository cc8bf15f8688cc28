package models

import "time"

// Document describes an uploaded study material. The binary itself lives
// in the blob store under BlobRef; this row is the only reference to it.
type Document struct {
	ID           string    `db:"id" json:"id"`
	OriginalName string    `db:"original_name" json:"original_name"`
	ClassLevel   string    `db:"class_level" json:"class_level"`
	Subject      string    `db:"subject" json:"subject"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	BlobRef      string    `db:"blob_ref" json:"-"`
	UploadedBy   string    `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}
