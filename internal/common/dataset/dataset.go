// Package dataset loads the financial workbook and exposes its records and lookup sets.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "finsight/internal/common/errors"
	"finsight/internal/models"
)

const (
	colCompany     = "company"
	colPeriod      = "date_str"
	colMetric      = "metrics"
	colRealization = "realization_budget"
	colPlanning    = "planning_budget"
	colUnit        = "column_format"
)

// columnAliases maps each canonical column to the header names accepted for it.
var columnAliases = map[string][]string{
	colCompany:     {"company"},
	colPeriod:      {"date_str", "period"},
	colMetric:      {"metrics", "metric"},
	colRealization: {"realization_budget", "realization_value"},
	colPlanning:    {"planning_budget", "planning_value"},
	colUnit:        {"column_format", "unit"},
}

var requiredColumns = []string{colCompany, colPeriod, colMetric, colRealization, colPlanning}

// Excel serial numbers above this are treated as dates rather than plain numbers.
const minExcelDateSerial = 3000

// Source locates a dataset file. Sheet is ignored for csv files.
type Source struct {
	Path  string
	Sheet string
}

// Store holds the dataset in memory. It is read-only after construction.
type Store struct {
	records   []models.Record
	metrics   []string
	companies []string
	periods   []string
}

// NewStore builds a store over already-loaded records.
func NewStore(records []models.Record) *Store {
	s := &Store{records: slices.Clone(records)}
	if s.records == nil {
		s.records = []models.Record{}
	}

	var metrics, companies, periods []string
	for _, r := range s.records {
		metrics = append(metrics, r.Metric)
		companies = append(companies, r.Company)
		periods = append(periods, r.Period)
	}
	s.metrics = distinctSorted(metrics)
	s.companies = distinctSorted(companies)
	s.periods = distinctSorted(periods)
	return s
}

// Load reads the file at src.Path. Unreadable files and missing columns are errors.
func Load(src Source) (*Store, error) {
	rows, fromExcel, err := readRows(src)
	if err != nil {
		return nil, apperrors.NewDatasetLoadFailedError(src.Path, err)
	}
	records, err := parseRows(rows, fromExcel)
	if err != nil {
		return nil, err
	}
	return NewStore(records), nil
}

// Load reloads the dataset from the source.
func (src Source) Load() (*Store, error) {
	return Load(src)
}

// Records returns a copy of every record in file order.
func (s *Store) Records() []models.Record {
	return slices.Clone(s.records)
}

func (s *Store) Metrics() []string   { return slices.Clone(s.metrics) }
func (s *Store) Companies() []string { return slices.Clone(s.companies) }
func (s *Store) Periods() []string   { return slices.Clone(s.periods) }

func (s *Store) Len() int {
	return len(s.records)
}

func readRows(src Source) ([][]string, bool, error) {
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".csv":
		rows, err := readCSV(src.Path)
		return rows, false, err
	case ".xlsx", ".xlsm":
		rows, err := readWorkbook(src.Path, src.Sheet)
		return rows, true, err
	default:
		return nil, false, fmt.Errorf("unsupported dataset file type %q", filepath.Ext(src.Path))
	}
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func parseRows(rows [][]string, fromExcel bool) ([]models.Record, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewDatasetColumnsMissingError(requiredColumns)
	}

	index := resolveColumns(rows[0])
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewDatasetColumnsMissingError(missing)
	}

	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		period := cell(row, index, colPeriod)
		if fromExcel {
			period = excelPeriod(period)
		}
		records = append(records, models.Record{
			Company:          cell(row, index, colCompany),
			Period:           period,
			Metric:           cell(row, index, colMetric),
			RealizationValue: parseNumber(cell(row, index, colRealization)),
			PlanningValue:    parseNumber(cell(row, index, colPlanning)),
			Unit:             cell(row, index, colUnit),
		})
	}
	return records, nil
}

// resolveColumns maps canonical column names to their position in the header.
func resolveColumns(header []string) map[string]int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	index := make(map[string]int, len(columnAliases))
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			if pos, ok := positions[alias]; ok {
				index[canonical] = pos
				break
			}
		}
	}
	return index
}

func cell(row []string, index map[string]int, col string) string {
	pos, ok := index[col]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return v
	}
	return math.NaN()
}

// excelPeriod converts date serials read from a workbook to YYYY-MM-DD.
func excelPeriod(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < minExcelDateSerial {
		return raw
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}

func distinctSorted(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
