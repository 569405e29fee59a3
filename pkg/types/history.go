// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DownloadStatus is the outcome of one download task.
type DownloadStatus string

const (
	StatusDownloaded DownloadStatus = "downloaded"
	StatusSkipped    DownloadStatus = "skipped"
	StatusFailed     DownloadStatus = "failed"
)

// DownloadRecord is one row of the download history.
type DownloadRecord struct {
	// RunID groups the records written by a single invocation.
	RunID string `json:"run_id" yaml:"run_id"`

	Course   string      `json:"course" yaml:"course"`
	Site     Site        `json:"site" yaml:"site"`
	Semester string      `json:"semester" yaml:"semester"`
	ExamType string      `json:"exam_type" yaml:"exam_type"`
	Content  ContentType `json:"content" yaml:"content"`

	// URL is the resolved file link.
	URL string `json:"url" yaml:"url"`

	// Path is the destination file on disk.
	Path string `json:"path" yaml:"path"`

	Status DownloadStatus `json:"status" yaml:"status"`

	// Error holds the failure message when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
}
