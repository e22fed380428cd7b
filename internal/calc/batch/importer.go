package batch

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/calc/irs"

	"github.com/xuri/excelize/v2"
)

var ErrBadSheet = errors.New("invalid spreadsheet")

var requiredColumns = []string{"lat", "lon", "height_m", "load_kn", "length_m", "width_m"}

// RowError is a skipped spreadsheet row; Row is the 1-based sheet row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Result
	Skipped []RowError `json:"skipped"`
}

// Import reads the first sheet of an xlsx workbook. The header row names the
// columns: lat, lon, height_m, load_kn, length_m, width_m and optionally
// material. Rows that do not parse or validate are skipped and reported.
func Import(ev *assess.Evaluator, r io.Reader, max int) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrBadSheet, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrBadSheet, err)
	}
	if len(rows) < 2 {
		return ImportResult{}, ErrEmptyBatch
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return ImportResult{}, err
	}
	if max > 0 && len(rows)-1 > max {
		return ImportResult{}, fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(rows)-1, max)
	}

	out := ImportResult{Result: newResult(len(rows) - 1), Skipped: []RowError{}}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		in, err := parseRow(row, cols)
		if err != nil {
			out.Skipped = append(out.Skipped, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		a, err := ev.Evaluate(in)
		if err != nil {
			out.Skipped = append(out.Skipped, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		out.add(a)
	}
	return out, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrBadSheet, strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (assess.Input, error) {
	values := make(map[string]float64, len(requiredColumns))
	for _, c := range requiredColumns {
		v, err := parseNumber(cell(row, cols[c]))
		if err != nil {
			return assess.Input{}, fmt.Errorf("%s: %w", c, err)
		}
		values[c] = v
	}
	in := assess.Input{
		Lat:     values["lat"],
		Lon:     values["lon"],
		HeightM: values["height_m"],
		LoadKN:  values["load_kn"],
		LengthM: values["length_m"],
		WidthM:  values["width_m"],
	}
	if i, ok := cols["material"]; ok {
		in.Material = irs.Material(cell(row, i))
	}
	return in, nil
}

// parseNumber also accepts a decimal comma.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
