// Package payees loads payee files (CSV, JSON or YAML) into PayeeRecords,
// inferring which columns hold the account, agency, name and cost center.
package payees

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/receipts/internal/types"
)

var (
	// ErrNoColumns is returned when the name or cost center column cannot be
	// identified.
	ErrNoColumns = errors.New("required payee columns not found")
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported payee file format")
)

// Format is a payee file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Result is a loaded payee file.
type Result struct {
	Records []types.PayeeRecord `json:"records" yaml:"records"`
	Skipped int                 `json:"skipped" yaml:"skipped"`
	Columns Columns             `json:"columns" yaml:"columns"`
}

// Load reads the payee file at path.
func Load(path string, logger *slog.Logger) (*Result, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payee file: %w", err)
	}
	defer f.Close()

	res, err := Parse(f, format, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	return res, nil
}

// Parse reads payees encoded as format from r.
func Parse(r io.Reader, format Format, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		header []string
		rows   [][]string
		err    error
	)
	switch format {
	case FormatCSV:
		header, rows, err = readCSV(r)
	case FormatJSON:
		header, rows, err = readJSON(r)
	case FormatYAML:
		header, rows, err = readYAML(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return buildRecords(header, rows, logger)
}

func buildRecords(header []string, rows [][]string, logger *slog.Logger) (*Result, error) {
	idx := detectColumns(header)
	if idx.name < 0 || idx.costCenter < 0 {
		return nil, fmt.Errorf("%w: name or cost center missing in header %q", ErrNoColumns, header)
	}

	res := &Result{Columns: Columns{
		Account:    headerAt(header, idx.account),
		Agency:     headerAt(header, idx.agency),
		Name:       headerAt(header, idx.name),
		CostCenter: headerAt(header, idx.costCenter),
	}}
	logger.Debug("payee columns detected",
		"account", res.Columns.Account,
		"agency", res.Columns.Agency,
		"name", res.Columns.Name,
		"cost_center", res.Columns.CostCenter,
	)

	for i, row := range rows {
		rec := types.PayeeRecord{
			Account:    cell(row, idx.account),
			Agency:     cell(row, idx.agency),
			Name:       cell(row, idx.name),
			CostCenter: cell(row, idx.costCenter),
			Row:        i + 2, // header is row 1
		}
		fillFromUnmapped(&rec, row, idx)

		if !rec.Valid() {
			res.Skipped++
			logger.Debug("skipping payee record", "row", rec.Row, "name", rec.Name)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// fillFromUnmapped recovers a blank account or agency from cells no field
// claimed: the first number of 5 or more digits is taken as the account,
// then the first remaining number of 3 to 5 digits as the agency.
func fillFromUnmapped(rec *types.PayeeRecord, row []string, idx columnIndex) {
	usedCell := -1
	if rec.AccountDigits() == "" {
		for i, v := range row {
			if idx.used(i) || !numberLike(v) {
				continue
			}
			if n := len(types.DigitsOnly(v)); n >= 5 {
				rec.Account = strings.TrimSpace(v)
				usedCell = i
				break
			}
		}
	}
	if rec.AgencyDigits() == "" {
		for i, v := range row {
			if idx.used(i) || i == usedCell || !numberLike(v) {
				continue
			}
			if n := len(types.DigitsOnly(v)); n >= 3 && n <= 5 {
				rec.Agency = strings.TrimSpace(v)
				break
			}
		}
	}
}

// numberLike reports whether v is digits with only formatting separators and
// an optional X verification digit.
func numberLike(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	digits := 0
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == '-' || r == ' ' || r == '/':
		case (r == 'x' || r == 'X') && i == len(v)-1:
		default:
			return false
		}
	}
	return digits > 0
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

func headerAt(header []string, i int) string {
	if i < 0 {
		return ""
	}
	return header[i]
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrNoColumns)
	}
	return all[0], all[1:], nil
}

// sniffDelimiter picks the most frequent of ';', ',' and tab in the first
// line. Spreadsheets exported with a comma decimal separator use ';'.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte(","))
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func readJSON(r io.Reader) ([]string, [][]string, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, nil, fmt.Errorf("failed to parse JSON payees: %w", err)
	}
	header, rows := tabulate(objs)
	return header, rows, nil
}

func readYAML(r io.Reader) ([]string, [][]string, error) {
	var objs []map[string]any
	if err := yaml.NewDecoder(r).Decode(&objs); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("failed to parse YAML payees: %w", err)
	}
	header, rows := tabulate(objs)
	return header, rows, nil
}

// tabulate turns a list of objects into a header (sorted union of keys) and
// rows of stringified values.
func tabulate(objs []map[string]any) ([]string, [][]string) {
	keySet := make(map[string]struct{})
	for _, o := range objs {
		for k := range o {
			keySet[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, len(objs))
	for i, o := range objs {
		row := make([]string, len(header))
		for j, k := range header {
			if v, ok := o[k]; ok && v != nil {
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	return header, rows
}
