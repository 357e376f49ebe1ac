package pagetext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultAccountLabels are the field labels that precede an account number.
var DefaultAccountLabels = []string{
	"CONTA CORRENTE",
	"CONTA POUPANÇA",
	"CONTA PAGAMENTO",
	"CONTA",
	"C/C",
	"CC",
}

// DefaultAgencyLabels are the field labels that precede an agency number.
var DefaultAgencyLabels = []string{
	"AGÊNCIA",
	"AG",
}

// Fields holds the labeled account and agency values found in a section.
// Values are digits only; empty when the label was not found.
type Fields struct {
	Account       string
	AccountRaw    string // as printed, e.g. "52938-2"
	AccountOffset int    // rune offset of AccountRaw in the section, -1 if absent
	Agency        string
	AgencyRaw     string
}

// HasAccount reports whether a labeled account value was found.
func (f Fields) HasAccount() bool { return f.Account != "" }

// HasAgency reports whether a labeled agency value was found.
func (f Fields) HasAgency() bool { return f.Agency != "" }

// FieldExtractor pulls labeled account/agency values out of section text.
// The label vocabulary is configurable since it is specific to a receipt
// layout family.
type FieldExtractor struct {
	account *regexp.Regexp
	agency  *regexp.Regexp
}

// valuePattern is a short run of digits, optionally dotted, with an optional
// hyphenated verification digit.
const valuePattern = `(\d{1,12}(?:\.\d{1,6})*(?:\s?-\s?[0-9X])?)`

// NewFieldExtractor compiles the label patterns. Empty label lists fall back
// to the defaults.
func NewFieldExtractor(accountLabels, agencyLabels []string) (*FieldExtractor, error) {
	if len(accountLabels) == 0 {
		accountLabels = DefaultAccountLabels
	}
	if len(agencyLabels) == 0 {
		agencyLabels = DefaultAgencyLabels
	}

	account, err := labelRegexp(accountLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to compile account labels: %w", err)
	}
	agency, err := labelRegexp(agencyLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to compile agency labels: %w", err)
	}
	return &FieldExtractor{account: account, agency: agency}, nil
}

// labelRegexp builds `\b(?:LABEL|...)\s*[:.#]?\s*(?:N[ºO°]?\.?\s*)?<value>`.
// Longer labels come first so "CONTA CORRENTE" wins over "CONTA".
func labelRegexp(labels []string) (*regexp.Regexp, error) {
	folded := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		folded = append(folded, string(foldUpperRunes(l)))
	}
	if len(folded) == 0 {
		return nil, fmt.Errorf("no labels")
	}
	sort.SliceStable(folded, func(i, j int) bool {
		return utf8.RuneCountInString(folded[i]) > utf8.RuneCountInString(folded[j])
	})

	alts := make([]string, len(folded))
	for i, l := range folded {
		parts := strings.Fields(l)
		for j, p := range parts {
			parts[j] = regexp.QuoteMeta(p)
		}
		alts[i] = strings.Join(parts, `\s+`)
	}
	expr := `\b(?:` + strings.Join(alts, "|") + `)\s*[:.#]?\s*(?:N[ºO°]?\.?\s*)?` + valuePattern
	return regexp.Compile(expr)
}

// Extract finds the first labeled account and agency values in section.
func (f *FieldExtractor) Extract(section string) Fields {
	fields := Fields{AccountOffset: -1}
	if section == "" {
		return fields
	}
	folded := string(foldUpperRunes(section))

	if loc := f.account.FindStringSubmatchIndex(folded); loc != nil {
		raw := folded[loc[2]:loc[3]]
		fields.Account = Digits(raw)
		fields.AccountRaw = strings.TrimSpace(raw)
		fields.AccountOffset = utf8.RuneCountInString(folded[:loc[2]])
	}
	if m := f.agency.FindStringSubmatch(folded); m != nil {
		fields.Agency = Digits(m[1])
		fields.AgencyRaw = strings.TrimSpace(m[1])
	}
	return fields
}
