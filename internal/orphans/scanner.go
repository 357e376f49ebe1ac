// Package orphans finds receipt pages that name an account no payee record
// knows about.
package orphans

import (
	"log/slog"
	"strings"

	"github.com/jackzampolin/receipts/internal/ledger"
	"github.com/jackzampolin/receipts/internal/pagetext"
	"github.com/jackzampolin/receipts/internal/types"
)

// Defaults for Options.
const (
	DefaultAccountMin   = 5
	DefaultAccountMax   = 7
	DefaultAgencyMin    = 3
	DefaultAgencyMax    = 5
	DefaultExcerptChars = 60
)

// Document is an indexed source document.
type Document struct {
	ID    string // identity used for page claims
	Name  string // display name
	Pages []pagetext.Page
}

// Orphan is an unclaimed page that credits an unknown account.
type Orphan struct {
	Document string `json:"document" yaml:"document"`
	Page     int    `json:"page" yaml:"page"` // 0-indexed
	Account  string `json:"account" yaml:"account"`
	Agency   string `json:"agency" yaml:"agency"`
	Excerpt  string `json:"excerpt" yaml:"excerpt"`
}

// Options bounds the plausible lengths of detected numbers.
type Options struct {
	AccountMin, AccountMax int
	AgencyMin, AgencyMax   int
	ExcerptChars           int
}

// DefaultOptions returns the default plausibility bounds.
func DefaultOptions() Options {
	return Options{
		AccountMin:   DefaultAccountMin,
		AccountMax:   DefaultAccountMax,
		AgencyMin:    DefaultAgencyMin,
		AgencyMax:    DefaultAgencyMax,
		ExcerptChars: DefaultExcerptChars,
	}
}

// KnownAccounts indexes payee records by (account, agency) pair and by bare
// account. Keys ignore leading zeros.
type KnownAccounts struct {
	pairs    map[[2]string]struct{}
	accounts map[string]struct{}
}

// NewKnownAccounts indexes records.
func NewKnownAccounts(records []types.PayeeRecord) *KnownAccounts {
	k := &KnownAccounts{
		pairs:    make(map[[2]string]struct{}),
		accounts: make(map[string]struct{}),
	}
	for _, r := range records {
		acc, ag := trimZeros(r.AccountDigits()), trimZeros(r.AgencyDigits())
		if acc == "" {
			continue
		}
		k.accounts[acc] = struct{}{}
		if ag != "" {
			k.pairs[[2]string{acc, ag}] = struct{}{}
		}
	}
	return k
}

// Known reports whether the pair, its swapped form, or the bare account
// belongs to any record.
func (k *KnownAccounts) Known(account, agency string) bool {
	acc, ag := trimZeros(account), trimZeros(agency)
	if _, ok := k.accounts[acc]; ok {
		return true
	}
	if _, ok := k.pairs[[2]string{acc, ag}]; ok {
		return true
	}
	_, ok := k.pairs[[2]string{ag, acc}]
	return ok
}

// Len returns the number of indexed accounts.
func (k *KnownAccounts) Len() int {
	return len(k.accounts)
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" && s != "" {
		return "0"
	}
	return t
}

// Scanner reports orphan pages.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// NewScanner creates a Scanner. Zero option values use the defaults.
func NewScanner(opts Options, logger *slog.Logger) *Scanner {
	def := DefaultOptions()
	if opts.AccountMin <= 0 {
		opts.AccountMin = def.AccountMin
	}
	if opts.AccountMax <= 0 {
		opts.AccountMax = def.AccountMax
	}
	if opts.AgencyMin <= 0 {
		opts.AgencyMin = def.AgencyMin
	}
	if opts.AgencyMax <= 0 {
		opts.AgencyMax = def.AgencyMax
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = def.ExcerptChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{opts: opts, logger: logger}
}

// Scan checks every page of docs not present in claims. Scanning never
// changes claims.
func (s *Scanner) Scan(docs []Document, claims *ledger.PageClaims, known *KnownAccounts) []Orphan {
	var out []Orphan
	for _, doc := range docs {
		for _, p := range doc.Pages {
			if claims.IsClaimed(doc.ID, p.Number) {
				continue
			}
			o, ok := s.check(p, known)
			if !ok {
				continue
			}
			o.Document = doc.Name
			s.logger.Debug("orphan page", "document", doc.Name, "page", p.Number+1, "account", o.Account)
			out = append(out, o)
		}
	}
	return out
}

func (s *Scanner) check(p pagetext.Page, known *KnownAccounts) (Orphan, bool) {
	f := p.Fields
	if !within(f.Account, s.opts.AccountMin, s.opts.AccountMax) ||
		!within(f.Agency, s.opts.AgencyMin, s.opts.AgencyMax) {
		return Orphan{}, false
	}
	if known.Known(f.Account, f.Agency) {
		return Orphan{}, false
	}
	return Orphan{
		Page:    p.Number,
		Account: f.Account,
		Agency:  f.Agency,
		Excerpt: pagetext.Excerpt(p.Section, f.AccountOffset, s.opts.ExcerptChars),
	}, true
}

func within(digits string, lo, hi int) bool {
	return len(digits) >= lo && len(digits) <= hi
}
