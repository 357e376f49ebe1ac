package matcher

import (
	"reflect"
	"testing"

	"github.com/jackzampolin/receipts/internal/pagetext"
)

func TestFindExactNumber(t *testing.T) {
	tests := []struct {
		name   string
		target string
		text   string
		want   bool
	}{
		{"longer run on the left", "12345", "X912345Y", false},
		{"hyphen formatted", "12345", "12-345 customer", true},
		{"extra leading digit", "12345", "112345 customer", false},
		{"dotted with check digit", "123456", "conta 12.345-6", true},
		{"spaced", "123456", "conta 12 345-6", true},
		{"trailing check digit tolerated", "12345", "conta 12345-6 ok", true},
		{"two trailing digits rejected", "12345", "conta 1234567", false},
		{"end of text", "529382", "Conta corrente: 52938-2", true},
		{"letters between digits", "12345", "12a345", false},
		{"formatted target", "52938-2", "conta 529382", true},
		{"empty target", "", "12345", false},
		{"tail of a dotted number", "123456", "conta 9.123.456-0", false},
		{"head of a longer dashed number", "12345", "conta 12345-67", false},
		{"sentence period after", "12345", "conta 12345. Agencia", true},
		{"slash between fields", "1234", "Ag/Conta: 1234/52938-2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindExactNumber(tt.target, tt.text); got != tt.want {
				t.Errorf("FindExactNumber(%q, %q) = %v, want %v", tt.target, tt.text, got, tt.want)
			}
		})
	}
}

func TestSameNumber(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"0001", "1", true},
		{"529382", "52938", true},
		{"52938", "529382", true},
		{"1000", "100", false},
		{"", "", false},
		{"1234", "4321", false},
	}
	for _, tt := range tests {
		if got := sameNumber(tt.a, tt.b); got != tt.want {
			t.Errorf("sameNumber(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func pages(texts ...string) []pagetext.Page {
	return pagetext.MustAnalyzer(pagetext.DefaultOptions()).Pages(texts)
}

func TestMatcher_Direct(t *testing.T) {
	doc := pages(
		"Comprovante de transferência\nConta creditada\nNome: Maria Souza\nConta corrente: 52938-2\nAgência: 1234\n",
		"Comprovante de transferência\nConta creditada\nNome: João Lima\nConta corrente: 77100-4\nAgência: 0987\n",
	)
	m := New(Options{})

	r := m.Match("529382", "1234", doc)
	if !reflect.DeepEqual(r.Pages, []int{0}) {
		t.Fatalf("expected page [0], got %v", r.Pages)
	}
	if r.Tier != TierDirect {
		t.Errorf("expected direct tier, got %s", r.Tier)
	}
	if r.UsedSwappedFields {
		t.Error("did not expect swapped fields")
	}
	if !r.AgencyConfirmed {
		t.Error("expected agency to be confirmed")
	}
}

func TestMatcher_DroppedCheckDigit(t *testing.T) {
	doc := pages("Conta creditada\nNome: Maria Souza\nConta: 52938\nAgência: 1234\n")
	r := New(Options{}).Match("52938-7", "1234", doc)
	if r.Tier != TierDirect || !reflect.DeepEqual(r.Pages, []int{0}) {
		t.Errorf("expected direct match on page 0, got %+v", r)
	}
}

func TestMatcher_Swapped(t *testing.T) {
	doc := pages(
		"Conta creditada\nFavorecida: Ana Pereira\nAgência: 1000 Conta: 55\n",
		"Conta creditada\nFavorecido: Outro Nome\nAgência: 2000 Conta: 66\n",
	)
	r := New(Options{}).Match("1000", "55", doc)
	if !r.UsedSwappedFields {
		t.Errorf("expected swapped fields, got %+v", r)
	}
	if r.Tier != TierSwapped {
		t.Errorf("expected swapped tier, got %s", r.Tier)
	}
	if !reflect.DeepEqual(r.Pages, []int{0}) {
		t.Errorf("expected page [0], got %v", r.Pages)
	}
}

func TestMatcher_SectionBounding(t *testing.T) {
	doc := pages("DADOS DO PAGADOR: conta 999999\nCONTA CREDITADA: conta 12345 agencia 0001 Maria Souza")
	r := New(Options{}).Match("999999", "4321", doc)
	if r.Matched() {
		t.Errorf("payer account must not match, got %+v", r)
	}

	r = New(Options{}).Match("12345", "0001", doc)
	if r.Tier != TierDirect {
		t.Errorf("credited account should match directly, got %+v", r)
	}
}

func TestMatcher_Broad(t *testing.T) {
	// Account is misspelled in the ledger; only the agency is right.
	doc := pages("Conta creditada\nNome: Carla Dias\nAgência: 4567\nConta corrente: 88811-0\n")
	r := New(Options{}).Match("999000", "4567", doc)
	if r.Tier != TierBroad {
		t.Fatalf("expected broad tier, got %+v", r)
	}
	if !reflect.DeepEqual(r.Pages, []int{0}) {
		t.Errorf("expected page [0], got %v", r.Pages)
	}
}

func TestMatcher_ShortNumbers(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		account string
		agency  string
		want    []int
		tier    Tier
	}{
		{
			name:    "both short",
			text:    "Conta creditada\nNome: Maria Souza\nConta: 12\nAgência: 34\n",
			account: "12",
			agency:  "34",
		},
		{
			name:    "short account not on page",
			text:    "CONTA CREDITADA: conta 12345 agencia 4321 nome Fulano de Tal",
			account: "12",
			agency:  "1234",
		},
		{
			name:    "short agency not on page",
			text:    "CONTA CREDITADA: conta 12345 agencia 4321 nome Fulano de Tal",
			account: "12345",
			agency:  "77",
		},
		{
			name:    "short agency labeled",
			text:    "CONTA CREDITADA: conta 12345 agencia 12 nome Fulano de Tal",
			account: "12345",
			agency:  "12",
			want:    []int{0},
			tier:    TierDirect,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{}).Match(tt.account, tt.agency, pages(tt.text))
			if len(tt.want) == 0 {
				if r.Matched() {
					t.Errorf("expected no match, got %+v", r)
				}
				return
			}
			if !reflect.DeepEqual(r.Pages, tt.want) || r.Tier != tt.tier {
				t.Errorf("expected %v (%s), got %+v", tt.want, tt.tier, r)
			}
		})
	}
}

func TestMatcher_MinSectionChars(t *testing.T) {
	doc := pages("Favorecido 123456")
	r := New(Options{}).Match("123456", "", doc)
	if r.Matched() {
		t.Errorf("near-empty section must not qualify, got %+v", r)
	}

	r = New(Options{MinSectionChars: 5}).Match("123456", "", doc)
	if !r.Matched() {
		t.Error("expected match with relaxed section minimum")
	}
}

func TestMatcher_NoSection(t *testing.T) {
	doc := pages("Comprovante\nConta: 529382 Agência 1234\n")
	if r := New(Options{}).Match("529382", "1234", doc); r.Matched() {
		t.Errorf("page without credited header must be invisible, got %+v", r)
	}
}

func TestMatcher_EqualFieldsSkipSwap(t *testing.T) {
	doc := pages("Conta creditada\nNome: Maria Souza\nAgência: 5555 Conta: 1\n")
	r := New(Options{}).Match("5555", "5555", doc)
	if r.UsedSwappedFields {
		t.Errorf("swap must be skipped when fields are equal, got %+v", r)
	}
	if r.Tier != TierBroad {
		t.Errorf("expected broad fallback, got %s", r.Tier)
	}
}

func TestMatcher_OrderedUniquePages(t *testing.T) {
	text := "Conta creditada\nNome: Maria Souza\nConta corrente: 52938-2\nAgência: 1234\n"
	doc := pages(text, "sem dados", text)
	// Present the index out of order.
	doc[0], doc[2] = doc[2], doc[0]

	r := New(Options{}).Match("529382", "1234", doc)
	if !reflect.DeepEqual(r.Pages, []int{0, 2}) {
		t.Errorf("expected [0 2], got %v", r.Pages)
	}
}
