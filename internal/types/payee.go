// Package types provides shared types used across multiple packages.
// This package has no dependencies on other receipts packages to avoid import cycles.
package types

import (
	"strings"
	"unicode"
)

// PayeeRecord is one row of expected-recipient data from the payee ledger.
// Account and Agency are kept as typed (they may contain separators);
// use AccountDigits/AgencyDigits for matching.
type PayeeRecord struct {
	Account    string `json:"account" yaml:"account"`
	Agency     string `json:"agency" yaml:"agency"`
	Name       string `json:"name" yaml:"name"`
	CostCenter string `json:"cost_center" yaml:"cost_center"`
	Row        int    `json:"row,omitempty" yaml:"row,omitempty"` // 1-based source row, 0 if unknown
}

// AccountDigits returns the account with every non-digit removed.
func (p PayeeRecord) AccountDigits() string {
	return DigitsOnly(p.Account)
}

// AgencyDigits returns the agency with every non-digit removed.
func (p PayeeRecord) AgencyDigits() string {
	return DigitsOnly(p.Agency)
}

// Valid reports whether the record can take part in matching.
// Name and cost center are required; at least one of account/agency must
// carry digits.
func (p PayeeRecord) Valid() bool {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.CostCenter) == "" {
		return false
	}
	return p.AccountDigits() != "" || p.AgencyDigits() != ""
}

// DigitsOnly deletes every non-digit character from s.
// Example: "52938-2" -> "529382".
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsDigits reports whether s is non-empty and made of ASCII digits only.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
