package config

import (
	"fmt"
	"time"

	"github.com/jackzampolin/receipts/internal/matcher"
	"github.com/jackzampolin/receipts/internal/orphans"
	"github.com/jackzampolin/receipts/internal/pagetext"
	"github.com/jackzampolin/receipts/internal/pdfout"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultDebounce is the default watch.debounce.
const DefaultDebounce = 2 * time.Second

// Config holds receipts configuration.
// Stored at: {home}/config.yaml
type Config struct {
	OutputDir string      `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	History   HistoryCfg  `mapstructure:"history" yaml:"history" json:"history"`
	Matching  MatchingCfg `mapstructure:"matching" yaml:"matching" json:"matching"`
	Sections  SectionsCfg `mapstructure:"sections" yaml:"sections" json:"sections"`
	Labels    LabelsCfg   `mapstructure:"labels" yaml:"labels" json:"labels"`
	Orphans   OrphansCfg  `mapstructure:"orphans" yaml:"orphans" json:"orphans"`
	Output    OutputCfg   `mapstructure:"output" yaml:"output" json:"output"`
	Watch     WatchCfg    `mapstructure:"watch" yaml:"watch" json:"watch"`
}

// HistoryCfg selects where processed documents are recorded. Backend is
// "json" or "sqlite"; an empty Path puts the file inside the home directory.
type HistoryCfg struct {
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

// MatchingCfg tunes the matcher.
type MatchingCfg struct {
	MinDigits       int `mapstructure:"min_digits" yaml:"min_digits" json:"min_digits"`
	MinSectionChars int `mapstructure:"min_section_chars" yaml:"min_section_chars" json:"min_section_chars"`
}

// SectionsCfg describes how the credited-party block is located.
// CreditedHeaders are tried in order.
type SectionsCfg struct {
	CreditedHeaders  []string `mapstructure:"credited_headers" yaml:"credited_headers" json:"credited_headers"`
	Terminators      []string `mapstructure:"terminators" yaml:"terminators" json:"terminators"`
	TerminatorOffset int      `mapstructure:"terminator_offset" yaml:"terminator_offset" json:"terminator_offset"`
	MaxChars         int      `mapstructure:"max_chars" yaml:"max_chars" json:"max_chars"`
}

// LabelsCfg is the field label vocabulary of the receipt layout.
type LabelsCfg struct {
	Account []string `mapstructure:"account" yaml:"account" json:"account"`
	Agency  []string `mapstructure:"agency" yaml:"agency" json:"agency"`
}

// OrphansCfg bounds plausible detected numbers.
type OrphansCfg struct {
	AccountMin   int `mapstructure:"account_min" yaml:"account_min" json:"account_min"`
	AccountMax   int `mapstructure:"account_max" yaml:"account_max" json:"account_max"`
	AgencyMin    int `mapstructure:"agency_min" yaml:"agency_min" json:"agency_min"`
	AgencyMax    int `mapstructure:"agency_max" yaml:"agency_max" json:"agency_max"`
	ExcerptChars int `mapstructure:"excerpt_chars" yaml:"excerpt_chars" json:"excerpt_chars"`
}

// OutputCfg controls output file naming.
type OutputCfg struct {
	MaxNameLength int `mapstructure:"max_name_length" yaml:"max_name_length" json:"max_name_length"`
}

// WatchCfg configures the watch command. Debounce is a Go duration, e.g. "2s".
type WatchCfg struct {
	Debounce string `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "receipts-out",
		History: HistoryCfg{
			Backend: BackendJSON,
		},
		Matching: MatchingCfg{
			MinDigits:       matcher.DefaultMinDigits,
			MinSectionChars: matcher.DefaultMinSectionChars,
		},
		Sections: SectionsCfg{
			CreditedHeaders:  append([]string(nil), pagetext.DefaultCreditedHeaders...),
			Terminators:      append([]string(nil), pagetext.DefaultTerminators...),
			TerminatorOffset: pagetext.DefaultTerminatorOffset,
			MaxChars:         pagetext.DefaultMaxSectionChars,
		},
		Labels: LabelsCfg{
			Account: append([]string(nil), pagetext.DefaultAccountLabels...),
			Agency:  append([]string(nil), pagetext.DefaultAgencyLabels...),
		},
		Orphans: OrphansCfg{
			AccountMin:   orphans.DefaultAccountMin,
			AccountMax:   orphans.DefaultAccountMax,
			AgencyMin:    orphans.DefaultAgencyMin,
			AgencyMax:    orphans.DefaultAgencyMax,
			ExcerptChars: orphans.DefaultExcerptChars,
		},
		Output: OutputCfg{
			MaxNameLength: pdfout.DefaultMaxNameLength,
		},
		Watch: WatchCfg{
			Debounce: DefaultDebounce.String(),
		},
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.History.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("invalid history.backend %q: must be %q or %q", c.History.Backend, BackendJSON, BackendSQLite)
	}
	if c.Orphans.AccountMin > c.Orphans.AccountMax {
		return fmt.Errorf("orphans.account_min (%d) exceeds orphans.account_max (%d)", c.Orphans.AccountMin, c.Orphans.AccountMax)
	}
	if c.Orphans.AgencyMin > c.Orphans.AgencyMax {
		return fmt.Errorf("orphans.agency_min (%d) exceeds orphans.agency_max (%d)", c.Orphans.AgencyMin, c.Orphans.AgencyMax)
	}
	if _, err := c.DebounceDuration(); err != nil {
		return err
	}
	return nil
}

// AnalyzerOptions converts the section and label settings.
func (c *Config) AnalyzerOptions() pagetext.Options {
	return pagetext.Options{
		CreditedHeaders:  c.Sections.CreditedHeaders,
		Terminators:      c.Sections.Terminators,
		TerminatorOffset: c.Sections.TerminatorOffset,
		MaxSectionChars:  c.Sections.MaxChars,
		AccountLabels:    c.Labels.Account,
		AgencyLabels:     c.Labels.Agency,
	}
}

// MatcherOptions converts the matching settings.
func (c *Config) MatcherOptions() matcher.Options {
	return matcher.Options{
		MinDigits:       c.Matching.MinDigits,
		MinSectionChars: c.Matching.MinSectionChars,
	}
}

// OrphanOptions converts the orphan settings.
func (c *Config) OrphanOptions() orphans.Options {
	return orphans.Options{
		AccountMin:   c.Orphans.AccountMin,
		AccountMax:   c.Orphans.AccountMax,
		AgencyMin:    c.Orphans.AgencyMin,
		AgencyMax:    c.Orphans.AgencyMax,
		ExcerptChars: c.Orphans.ExcerptChars,
	}
}

// DebounceDuration parses watch.debounce. Empty means no debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid watch.debounce %q: %w", c.Watch.Debounce, err)
	}
	return d, nil
}
