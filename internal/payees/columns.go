package payees

import (
	"strings"
	"unicode"

	"github.com/jackzampolin/receipts/internal/pagetext"
)

// Header aliases, compared after accent folding and lowercasing.
var (
	AccountAliases    = []string{"conta", "conta corrente", "numero da conta", "account"}
	AgencyAliases     = []string{"agencia", "agency", "ag"}
	NameAliases       = []string{"nome social", "nome", "funcionario", "favorecido", "name"}
	CostCenterAliases = []string{
		"descricao ccusto", "descricao de ccusto", "desc ccusto", "ccusto",
		"centro de custo", "setor", "cost center",
	}
)

// Columns names the header chosen for each field, "" when none was found.
type Columns struct {
	Account    string `json:"account" yaml:"account"`
	Agency     string `json:"agency" yaml:"agency"`
	Name       string `json:"name" yaml:"name"`
	CostCenter string `json:"cost_center" yaml:"cost_center"`
}

type columnIndex struct {
	account, agency, name, costCenter int
}

func (c columnIndex) used(i int) bool {
	return i == c.account || i == c.agency || i == c.name || i == c.costCenter
}

// detectColumns maps header cells to fields. Each field takes the first
// column whose header equals one of its aliases, or failing that the first
// column whose header contains an alias as whole words. A column serves at
// most one field.
func detectColumns(header []string) columnIndex {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = headerKey(h)
	}

	idx := columnIndex{account: -1, agency: -1, name: -1, costCenter: -1}
	idx.account = findColumn(norm, AccountAliases, idx)
	idx.agency = findColumn(norm, AgencyAliases, idx)
	idx.name = findColumn(norm, NameAliases, idx)
	idx.costCenter = findColumn(norm, CostCenterAliases, idx)
	return idx
}

func findColumn(headers, aliases []string, taken columnIndex) int {
	keys := make([]string, len(aliases))
	for i, a := range aliases {
		keys[i] = headerKey(a)
	}

	for i, h := range headers {
		if taken.used(i) || h == "" {
			continue
		}
		for _, k := range keys {
			if h == k {
				return i
			}
		}
	}
	for i, h := range headers {
		if taken.used(i) || h == "" {
			continue
		}
		for _, k := range keys {
			if containsWords(h, k) {
				return i
			}
		}
	}
	return -1
}

// headerKey folds accents, lowercases, and turns punctuation into single
// spaces: "Descrição C.Custo" -> "descricao c custo".
func headerKey(s string) string {
	s = strings.ToLower(pagetext.FoldAccents(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func containsWords(header, alias string) bool {
	return strings.Contains(" "+header+" ", " "+alias+" ")
}
