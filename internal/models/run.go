package models

import "time"

// Run records one completed parse of an export archive.
type Run struct {
	ID              string    `json:"id" db:"id"`
	ArchiveName     string    `json:"archive_name" db:"archive_name"`
	MessageCount    int       `json:"message_count" db:"message_count"`
	AttachmentCount int       `json:"attachment_count" db:"attachment_count"`
	JSONPath        string    `json:"json_path,omitempty" db:"json_path"`
	ExcelPath       string    `json:"excel_path,omitempty" db:"excel_path"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
