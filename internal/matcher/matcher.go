// Package matcher resolves a payee's account and agency to the receipt pages
// that credit them.
package matcher

import (
	"sort"

	"github.com/jackzampolin/receipts/internal/pagetext"
	"github.com/jackzampolin/receipts/internal/types"
)

// Tier identifies which strategy produced a match.
type Tier string

const (
	TierNone    Tier = "none"
	TierDirect  Tier = "direct"
	TierSwapped Tier = "swapped"
	TierBroad   Tier = "broad"
)

// Defaults for Options.
const (
	DefaultMinDigits       = 3
	DefaultMinSectionChars = 20
)

// Result is the outcome of matching one payee against one document.
type Result struct {
	Pages             []int // ascending, unique, 0-indexed
	Tier              Tier
	UsedSwappedFields bool
	AgencyConfirmed   bool // the agency was also seen on a matched page
}

// Matched reports whether any page was found.
func (r Result) Matched() bool {
	return len(r.Pages) > 0
}

// Options tunes the matcher.
type Options struct {
	// MinDigits is the shortest number searched for in free text. Shorter
	// values are only compared against labeled fields.
	MinDigits int
	// MinSectionChars is the shortest credited section a page needs to qualify.
	MinSectionChars int
}

// Matcher applies the tiered strategies in order; the first non-empty result
// wins.
type Matcher struct {
	opts       Options
	strategies []strategy
}

// strategy is one tier: resolve reports whether page p credits the payee and
// whether the agency was confirmed on it.
type strategy struct {
	tier    Tier
	swapped bool
	skip    func(account, agency string) bool
	resolve func(m *Matcher, account, agency string, p pagetext.Page) (hit, agencyHit bool)
}

// New creates a Matcher. Zero option values use the defaults.
func New(opts Options) *Matcher {
	if opts.MinDigits <= 0 {
		opts.MinDigits = DefaultMinDigits
	}
	if opts.MinSectionChars <= 0 {
		opts.MinSectionChars = DefaultMinSectionChars
	}
	return &Matcher{
		opts: opts,
		strategies: []strategy{
			{tier: TierDirect, resolve: (*Matcher).direct},
			{
				tier:    TierSwapped,
				swapped: true,
				skip:    func(account, agency string) bool { return account == agency },
				resolve: (*Matcher).direct,
			},
			{tier: TierBroad, resolve: (*Matcher).broad},
		},
	}
}

// Match finds the pages crediting the payee identified by account and agency.
// Both values may carry formatting; only their digits are used.
func (m *Matcher) Match(account, agency string, pages []pagetext.Page) Result {
	acc := types.DigitsOnly(account)
	ag := types.DigitsOnly(agency)
	if m.short(acc) && m.short(ag) {
		return Result{Tier: TierNone}
	}

	for _, s := range m.strategies {
		a, g := acc, ag
		if s.swapped {
			a, g = ag, acc
		}
		if s.skip != nil && s.skip(acc, ag) {
			continue
		}
		if a == "" && s.tier != TierBroad {
			continue
		}

		var result Result
		for _, p := range pages {
			if !p.HasSection(m.opts.MinSectionChars) {
				continue
			}
			if !m.shortConfirmed(s.tier, a, g, p) {
				continue
			}
			hit, agencyHit := s.resolve(m, a, g, p)
			if !hit {
				continue
			}
			result.Pages = append(result.Pages, p.Number)
			if agencyHit {
				result.AgencyConfirmed = true
			}
		}
		if len(result.Pages) > 0 {
			result.Pages = uniqueSorted(result.Pages)
			result.Tier = s.tier
			result.UsedSwappedFields = s.swapped
			return result
		}
	}
	return Result{Tier: TierNone}
}

func (m *Matcher) short(digits string) bool {
	return len(digits) < m.opts.MinDigits
}

// shortConfirmed requires a number too short to search for to be the page's
// labeled field for the role it plays in this tier. The broad tier accepts
// either labeled field.
func (m *Matcher) shortConfirmed(tier Tier, account, agency string, p pagetext.Page) bool {
	f := p.Fields
	labeled := func(n string, own string, other string) bool {
		if n == "" || !m.short(n) {
			return true
		}
		if own != "" && sameNumber(own, n) {
			return true
		}
		return tier == TierBroad && other != "" && sameNumber(other, n)
	}
	return labeled(account, f.Account, f.Agency) && labeled(agency, f.Agency, f.Account)
}

// direct matches the account inside the credited section, rejecting pages
// where the number only shows up as the labeled agency (a transposed record).
func (m *Matcher) direct(account, agency string, p pagetext.Page) (bool, bool) {
	if !m.accountOnPage(account, p) {
		return false, false
	}
	return true, m.agencyOnPage(agency, p)
}

func (m *Matcher) accountOnPage(account string, p pagetext.Page) bool {
	f := p.Fields
	if m.short(account) {
		return f.HasAccount() && sameNumber(f.Account, account)
	}

	found := FindExactNumber(account, p.Section)
	if !found {
		if d := dropCheckDigit(account); d != "" {
			found = FindExactNumber(d, p.Section)
		}
	}
	if !found {
		return false
	}

	inverted := f.HasAgency() && sameNumber(f.Agency, account) &&
		!(f.HasAccount() && sameNumber(f.Account, account))
	return !inverted
}

func (m *Matcher) agencyOnPage(agency string, p pagetext.Page) bool {
	if agency == "" {
		return false
	}
	if p.Fields.HasAgency() && sameNumber(p.Fields.Agency, agency) {
		return true
	}
	if m.short(agency) {
		return false
	}
	return FindExactNumber(agency, p.Section)
}

// broad accepts any page whose section shows either number.
func (m *Matcher) broad(account, agency string, p pagetext.Page) (bool, bool) {
	for _, n := range m.needles(account) {
		if FindExactNumber(n, p.Section) {
			return true, m.agencyOnPage(agency, p)
		}
	}
	for _, n := range m.needles(agency) {
		if FindExactNumber(n, p.Section) {
			return true, true
		}
	}
	return false, false
}

// needles returns the searchable forms of a number: itself and, for long
// numbers, the form without the verification digit.
func (m *Matcher) needles(digits string) []string {
	if m.short(digits) {
		return nil
	}
	out := []string{digits}
	if d := dropCheckDigit(digits); d != "" {
		out = append(out, d)
	}
	return out
}

func uniqueSorted(pages []int) []int {
	sort.Ints(pages)
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}
