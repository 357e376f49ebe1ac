package reconcile

import (
	"time"

	"github.com/jackzampolin/receipts/internal/matcher"
	"github.com/jackzampolin/receipts/internal/orphans"
	"github.com/jackzampolin/receipts/internal/types"
)

// Status is the outcome of one document.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Extraction is one output file written for a payee.
type Extraction struct {
	Payee   string       `json:"payee" yaml:"payee"`
	Row     int          `json:"row,omitempty" yaml:"row,omitempty"`
	Pages   []int        `json:"pages" yaml:"pages"` // 1-based for display
	Tier    matcher.Tier `json:"tier" yaml:"tier"`
	Swapped bool         `json:"swapped,omitempty" yaml:"swapped,omitempty"`
	Path    string       `json:"path" yaml:"path"`
}

// DocumentResult reports what happened to one source document.
type DocumentResult struct {
	Document    string `json:"document" yaml:"document"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Status      Status `json:"status" yaml:"status"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`

	Pages          int `json:"pages" yaml:"pages"`
	PagesExtracted int `json:"pages_extracted" yaml:"pages_extracted"`
	Unmatched      int `json:"unmatched_records" yaml:"unmatched_records"`
	Duplicates     int `json:"duplicates" yaml:"duplicates"`
	MultiPage      int `json:"multi_page_matches" yaml:"multi_page_matches"`
	WriteErrors    int `json:"write_errors" yaml:"write_errors"`

	Files []Extraction `json:"files,omitempty" yaml:"files,omitempty"`
}

// Summary aggregates a whole run.
type Summary struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Canceled   bool      `json:"canceled,omitempty" yaml:"canceled,omitempty"`

	Payees       int `json:"payees" yaml:"payees"`
	Processed    int `json:"processed" yaml:"processed"`
	Skipped      int `json:"skipped" yaml:"skipped"`
	Failed       int `json:"failed" yaml:"failed"`
	FilesWritten int `json:"files_written" yaml:"files_written"`

	Documents []DocumentResult    `json:"documents" yaml:"documents"`
	Orphans   []orphans.Orphan    `json:"orphans,omitempty" yaml:"orphans,omitempty"`
	NotFound  []types.PayeeRecord `json:"not_found,omitempty" yaml:"not_found,omitempty"`

	OrphanReport   string `json:"orphan_report,omitempty" yaml:"orphan_report,omitempty"`
	NotFoundReport string `json:"not_found_report,omitempty" yaml:"not_found_report,omitempty"`
}

func (s *Summary) add(r DocumentResult) {
	s.Documents = append(s.Documents, r)
	switch r.Status {
	case StatusProcessed:
		s.Processed++
		s.FilesWritten += len(r.Files)
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}
