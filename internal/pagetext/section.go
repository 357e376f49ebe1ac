package pagetext

// Default bounds for the credited section.
const (
	DefaultTerminatorOffset = 50
	DefaultMaxSectionChars  = 500
)

// DefaultCreditedHeaders lists the phrases that open the credited-party block,
// most specific first.
var DefaultCreditedHeaders = []string{
	"DADOS DA CONTA CREDITADA",
	"CONTA CREDITADA",
	"DADOS DO FAVORECIDO",
	"FAVORECIDO",
	"DADOS DO RECEBEDOR",
	"RECEBEDOR",
	"DADOS DO BENEFICIÁRIO",
	"BENEFICIÁRIO",
	"CREDITADO",
}

// DefaultTerminators lists the phrases that open the next block of a receipt.
var DefaultTerminators = []string{
	"DADOS DO PAGADOR",
	"PAGADOR",
	"DADOS DA TRANSFERÊNCIA",
	"DADOS DO COMPROVANTE",
	"AUTENTICAÇÃO",
	"VALOR",
	"DATA DA OPERAÇÃO",
}

// SectionLocator isolates the part of a page naming the credited (receiving)
// party, so a payer's account printed elsewhere on the page is never matched.
type SectionLocator struct {
	headers          [][]rune
	terminators      [][]rune
	terminatorOffset int
	maxChars         int
}

// NewSectionLocator builds a locator. Phrases are matched case- and
// accent-insensitively; headers are tried in the given order.
func NewSectionLocator(headers, terminators []string, terminatorOffset, maxChars int) *SectionLocator {
	if len(headers) == 0 {
		headers = DefaultCreditedHeaders
	}
	if len(terminators) == 0 {
		terminators = DefaultTerminators
	}
	if terminatorOffset <= 0 {
		terminatorOffset = DefaultTerminatorOffset
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxSectionChars
	}

	l := &SectionLocator{terminatorOffset: terminatorOffset, maxChars: maxChars}
	for _, h := range headers {
		if h == "" {
			continue
		}
		l.headers = append(l.headers, foldUpperRunes(h))
	}
	for _, t := range terminators {
		if t == "" {
			continue
		}
		l.terminators = append(l.terminators, foldUpperRunes(t))
	}
	return l
}

// Bounds returns the rune offsets [start, end) of the credited section in text.
// ok is false when no header phrase occurs on the page.
func (l *SectionLocator) Bounds(text string) (start, end int, ok bool) {
	upper := foldUpperRunes(text)

	start = -1
	for _, h := range l.headers {
		if idx := indexRunes(upper, h, 0); idx >= 0 {
			start = idx
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}

	end = -1
	from := start + l.terminatorOffset
	for _, t := range l.terminators {
		idx := indexRunes(upper, t, from)
		if idx >= 0 && (end < 0 || idx < end) {
			end = idx
		}
	}
	if end < 0 {
		end = start + l.maxChars
		if end > len(upper) {
			end = len(upper)
		}
	}
	return start, end, true
}

// Locate returns the exact-case credited section of text, or "" when the page
// has no credited-account header.
func (l *SectionLocator) Locate(text string) string {
	start, end, ok := l.Bounds(text)
	if !ok {
		return ""
	}
	return string([]rune(text)[start:end])
}
