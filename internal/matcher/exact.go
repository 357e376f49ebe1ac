package matcher

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jackzampolin/receipts/internal/types"
)

// maxSeparators is how many formatting characters (dots, dashes, spaces) may
// sit between two digits of a number, as in "12.345-6" or "12 345-6".
const maxSeparators = 3

// joiner binds digit groups of a single formatted number.
const joiner = `[.\-]`

var patternCache sync.Map // digits -> *regexp.Regexp

// FindExactNumber reports whether the digits of target occur in text as a
// whole number: each digit in order with only separators between them, and
// no further digit at either end, directly or joined by a dot or dash. A
// single trailing verification digit is tolerated.
//
//	FindExactNumber("12345", "12-345 customer")  // true
//	FindExactNumber("12345", "112345 customer")  // false
//	FindExactNumber("12345", "X912345Y")         // false
//	FindExactNumber("12345", "12345-67")         // false
func FindExactNumber(target, text string) bool {
	digits := types.DigitsOnly(target)
	if digits == "" || text == "" {
		return false
	}
	return exactPattern(digits).MatchString(text)
}

func exactPattern(digits string) *regexp.Regexp {
	if re, ok := patternCache.Load(digits); ok {
		return re.(*regexp.Regexp)
	}

	sep := `[^\pL\pN]{0,` + strconv.Itoa(maxSeparators) + `}`
	var b strings.Builder
	// A digit before the number, bare or behind a joiner, continues it.
	b.WriteString(`(?:^|^` + joiner + `|[^0-9.\-]|[^0-9]` + joiner + `)`)
	for i, d := range digits {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteRune(d)
	}
	b.WriteString(`(?:[^\pL\pN]?[0-9])?`)
	b.WriteString(`(?:$|` + joiner + `$|[^0-9.\-]|` + joiner + `[^0-9])`)

	re := regexp.MustCompile(b.String())
	actual, _ := patternCache.LoadOrStore(digits, re)
	return actual.(*regexp.Regexp)
}

// dropCheckDigit returns digits without its last digit when enough remain to
// stay distinctive, or "".
func dropCheckDigit(digits string) string {
	if len(digits) <= 4 {
		return ""
	}
	return digits[:len(digits)-1]
}

// sameNumber compares two digit strings ignoring leading zeros and tolerating
// a missing verification digit on either side.
func sameNumber(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if ta == tb {
		return true
	}
	if d := dropCheckDigit(a); d != "" && strings.TrimLeft(d, "0") == tb {
		return true
	}
	if d := dropCheckDigit(b); d != "" && strings.TrimLeft(d, "0") == ta {
		return true
	}
	return false
}
