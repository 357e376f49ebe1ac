// Package pagetext turns receipt PDF pages into immutable text indexes:
// raw text, digit stream, normalized text and the credited-party section.
package pagetext

// Page is the text index of one PDF page. Pages are 0-indexed.
type Page struct {
	Number     int
	Raw        string
	Digits     string
	Normalized string

	// Section is the exact-case credited-party block, "" if none was found.
	Section           string
	SectionDigits     string
	SectionNormalized string

	// Fields are the labeled account/agency values found in Section.
	Fields Fields
}

// HasSection reports whether the page has a credited section of at least
// minChars runes.
func (p Page) HasSection(minChars int) bool {
	if p.Section == "" {
		return false
	}
	return len([]rune(p.Section)) >= minChars
}

// Options configures an Analyzer.
type Options struct {
	CreditedHeaders  []string
	Terminators      []string
	TerminatorOffset int
	MaxSectionChars  int
	AccountLabels    []string
	AgencyLabels     []string
}

// DefaultOptions returns the receipt layout defaults.
func DefaultOptions() Options {
	return Options{
		CreditedHeaders:  DefaultCreditedHeaders,
		Terminators:      DefaultTerminators,
		TerminatorOffset: DefaultTerminatorOffset,
		MaxSectionChars:  DefaultMaxSectionChars,
		AccountLabels:    DefaultAccountLabels,
		AgencyLabels:     DefaultAgencyLabels,
	}
}

// Analyzer builds Page indexes from raw page text.
type Analyzer struct {
	locator *SectionLocator
	fields  *FieldExtractor
}

// NewAnalyzer creates an Analyzer from opts.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	fields, err := NewFieldExtractor(opts.AccountLabels, opts.AgencyLabels)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		locator: NewSectionLocator(opts.CreditedHeaders, opts.Terminators, opts.TerminatorOffset, opts.MaxSectionChars),
		fields:  fields,
	}, nil
}

// MustAnalyzer is NewAnalyzer for static options; it panics on error.
func MustAnalyzer(opts Options) *Analyzer {
	a, err := NewAnalyzer(opts)
	if err != nil {
		panic(err)
	}
	return a
}

// Fields exposes the analyzer's field extractor.
func (a *Analyzer) Fields() *FieldExtractor {
	return a.fields
}

// Page indexes the raw text of page number n.
func (a *Analyzer) Page(n int, raw string) Page {
	p := Page{
		Number:     n,
		Raw:        raw,
		Digits:     Digits(raw),
		Normalized: Normalize(raw),
		Fields:     Fields{AccountOffset: -1},
	}
	if section := a.locator.Locate(raw); section != "" {
		p.Section = section
		p.SectionDigits = Digits(section)
		p.SectionNormalized = Normalize(section)
		p.Fields = a.fields.Extract(section)
	}
	return p
}

// Pages indexes a whole document given its per-page raw texts.
func (a *Analyzer) Pages(texts []string) []Page {
	pages := make([]Page, len(texts))
	for i, t := range texts {
		pages[i] = a.Page(i, t)
	}
	return pages
}

// Excerpt returns up to width runes on each side of the rune offset at in
// text, whitespace collapsed.
func Excerpt(text string, at, width int) string {
	rs := []rune(text)
	if at < 0 || at > len(rs) {
		at = 0
	}
	start := at - width
	if start < 0 {
		start = 0
	}
	end := at + width
	if end > len(rs) {
		end = len(rs)
	}
	return collapseSpace(string(rs[start:end]))
}
