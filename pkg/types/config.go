package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used for listing and file requests.
type HTTPConfig struct {
	// Timeout bounds connecting, waiting for headers, and each listing
	// fetch; for file downloads it is the longest gap allowed between
	// received bytes. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is how many times a 429/503 response is retried (0 = single attempt).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Defaults applied by Normalize.
const (
	DefaultDepartment  = "CS"
	DefaultErrorLog    = "error.log"
	DefaultConcurrency = 8
	DefaultChunkSize   = 32 * 1024
	DefaultUserAgent   = "examfetch/0.1"
)

// FetchConfig is the explicit configuration passed to the extractor,
// downloader, and orchestrator.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Verbose enables per-course and per-file progress messages.
	Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`

	// Unpaired allows downloading a link whose counterpart is missing.
	Unpaired bool `json:"unpaired" yaml:"unpaired" mapstructure:"unpaired"`

	// ExamsOnly and SolutionsOnly restrict downloads to one content type.
	// They are mutually exclusive.
	ExamsOnly     bool `json:"exams_only" yaml:"exams_only" mapstructure:"exams_only"`
	SolutionsOnly bool `json:"solutions_only" yaml:"solutions_only" mapstructure:"solutions_only"`

	// EnableTBP and EnableHKN select the listing sites. When neither is set
	// both are used.
	EnableTBP bool `json:"enable_tbp" yaml:"enable_tbp" mapstructure:"enable_tbp"`
	EnableHKN bool `json:"enable_hkn" yaml:"enable_hkn" mapstructure:"enable_hkn"`

	// TBPBaseURL and HKNBaseURL override the site hosts (empty = default).
	TBPBaseURL string `json:"tbp_base_url,omitempty" yaml:"tbp_base_url,omitempty" mapstructure:"tbp_base_url"`
	HKNBaseURL string `json:"hkn_base_url,omitempty" yaml:"hkn_base_url,omitempty" mapstructure:"hkn_base_url"`

	// Department prefixes course folders ("CS 170") and, lowercased, forms
	// the listing URL path segment.
	Department string `json:"department" yaml:"department" mapstructure:"department"`

	// OutDir is the directory in which course folders are created.
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`

	// ErrorLog is the append-only failure log path.
	ErrorLog string `json:"error_log" yaml:"error_log" mapstructure:"error_log"`

	// Concurrency bounds in-flight downloads (0 = unbounded).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// ChunkSize is the copy buffer size for streamed downloads.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// HistoryDB is the SQLite download history path (empty disables history).
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty" mapstructure:"history_db"`
}

// Normalize fills unset fields with defaults and enables both sites when
// neither was selected.
func (c *FetchConfig) Normalize() {
	if !c.EnableTBP && !c.EnableHKN {
		c.EnableTBP, c.EnableHKN = true, true
	}
	if c.Department == "" {
		c.Department = DefaultDepartment
	}
	if c.OutDir == "" {
		c.OutDir = "."
	}
	if c.ErrorLog == "" {
		c.ErrorLog = DefaultErrorLog
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Validate rejects contradictory or out-of-range settings.
func (c FetchConfig) Validate() error {
	if c.ExamsOnly && c.SolutionsOnly {
		return fmt.Errorf("exams-only and solutions-only are mutually exclusive")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk size must not be negative, got %d", c.ChunkSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// Wants reports whether files of the given content type should be fetched.
func (c FetchConfig) Wants(ct ContentType) bool {
	switch {
	case c.ExamsOnly:
		return ct == ContentExam
	case c.SolutionsOnly:
		return ct == ContentSolution
	default:
		return true
	}
}
