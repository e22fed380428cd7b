package zones

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

//go:embed data_zonas.csv
var defaultTable []byte

var ErrMalformedTable = errors.New("malformed zone table")

var columnAliases = map[string]string{
	"lat_min":    "lat_min",
	"lat_max":    "lat_max",
	"lon_min":    "lon_min",
	"lon_max":    "lon_max",
	"pga":        "pga",
	"tipo_suelo": "soil",
	"soil_type":  "soil",
	"soil":       "soil",
}

var requiredColumns = []string{"lat_min", "lat_max", "lon_min", "lon_max", "pga", "soil"}

// Default returns the zone table embedded in the binary.
func Default() (*Table, error) {
	return LoadCSV(bytes.NewReader(defaultTable))
}

// LoadFile picks the loader by extension: .xlsx or anything else as CSV.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zone table: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(f)
	}
	return LoadCSV(f)
}

// LoadCSV reads a comma-delimited table with a header row. Rows keep their
// file order.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	return parseRows(rows)
}

// LoadXLSX reads the first sheet of a workbook laid out like the CSV table.
func LoadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}

	idx := make(map[string]int, len(requiredColumns))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if col, ok := columnAliases[key]; ok {
			idx[col] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedTable, col)
		}
	}

	zones := make([]Zone, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		z, err := parseZone(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedTable, line, err)
		}
		zones = append(zones, z)
	}
	return NewTable(zones), nil
}

func parseZone(row []string, idx map[string]int) (Zone, error) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(field(col), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", col, field(col))
		}
		return v, nil
	}

	var z Zone
	var err error
	if z.LatMin, err = num("lat_min"); err != nil {
		return Zone{}, err
	}
	if z.LatMax, err = num("lat_max"); err != nil {
		return Zone{}, err
	}
	if z.LonMin, err = num("lon_min"); err != nil {
		return Zone{}, err
	}
	if z.LonMax, err = num("lon_max"); err != nil {
		return Zone{}, err
	}
	if z.PGA, err = num("pga"); err != nil {
		return Zone{}, err
	}

	if z.LatMin > z.LatMax {
		return Zone{}, fmt.Errorf("lat_min %v > lat_max %v", z.LatMin, z.LatMax)
	}
	if z.LonMin > z.LonMax {
		return Zone{}, fmt.Errorf("lon_min %v > lon_max %v", z.LonMin, z.LonMax)
	}
	if z.PGA < 0 {
		return Zone{}, fmt.Errorf("negative pga %v", z.PGA)
	}

	soil := strings.ToUpper(field("soil"))
	if soil == "" {
		return Zone{}, errors.New("soil type is empty")
	}
	z.Soil = SoilType(soil)
	return z, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
