package pagetext

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jackzampolin/receipts/internal/types"
)

// Digits deletes every non-digit character from s.
func Digits(s string) string {
	return types.DigitsOnly(s)
}

// FoldAccents removes diacritics: "AGÊNCIA" -> "AGENCIA".
func FoldAccents(s string) string {
	// Chains carry state, so one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize strips accents, turns every character that is not a letter,
// digit or space into a space, collapses whitespace runs and uppercases.
func Normalize(s string) string {
	folded := FoldAccents(s)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToUpper(r)
		default:
			return ' '
		}
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}

// foldUpperRunes uppercases and strips the accent of every rune in place,
// keeping a 1:1 rune correspondence with the input so offsets found in the
// result can be applied to the original text.
func foldUpperRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = foldRune(unicode.ToUpper(r))
	}
	return rs
}

func foldRune(r rune) rune {
	if r < 0x80 {
		return r
	}
	d := []rune(norm.NFD.String(string(r)))
	if len(d) > 1 && unicode.IsLetter(d[0]) {
		return d[0]
	}
	return r
}

// indexRunes returns the index of the first occurrence of needle in hay at or
// after from, or -1.
func indexRunes(hay, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	n := len(needle)
	if n == 0 {
		return -1
	}
	for i := from; i+n <= len(hay); i++ {
		if hay[i] != needle[0] {
			continue
		}
		match := true
		for j := 1; j < n; j++ {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// collapseSpace joins whitespace-separated fields with single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
