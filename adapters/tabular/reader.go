// Package tabular loads group-labeled measurement tables from delimited
// text files and Excel workbooks into distributions.
package tabular

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pairstat/domain/dist"
)

// Columns names the table columns a distribution is read from. The zero
// value reads the conventional lowercase names.
type Columns struct {
	Group   string `json:"group"`
	Subject string `json:"subject"`
	Measure string `json:"measure"`
}

// DefaultColumns returns the conventional column names.
func DefaultColumns() Columns {
	return Columns{Group: "group", Subject: "subject", Measure: "measure"}
}

func (c Columns) orDefault() Columns {
	d := DefaultColumns()
	if c.Group != "" {
		d.Group = c.Group
	}
	if c.Subject != "" {
		d.Subject = c.Subject
	}
	if c.Measure != "" {
		d.Measure = c.Measure
	}
	return d
}

// Reader handles reading CSV, TSV and Excel measurement tables.
type Reader struct {
	filePath string
	fileType string // "csv", "tsv" or "xlsx"
	cols     Columns
}

// NewReader creates a reader for the given file, picking the format from
// the file extension.
func NewReader(filePath string, cols Columns) *Reader {
	fileType := "xlsx"
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		fileType = "csv"
	case ".tsv", ".tab":
		fileType = "tsv"
	}
	return &Reader{filePath: filePath, fileType: fileType, cols: cols.orDefault()}
}

// ReadDistribution reads the whole file into a distribution named after
// the file. An empty measure cell becomes a NaN measure; the group and
// subject cells are kept as trimmed strings.
func (r *Reader) ReadDistribution() (*dist.Distribution, error) {
	log.Printf("[TabularReader] reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readDelimited(',')
	case "tsv":
		rows, err = r.readDelimited('\t')
	case "xlsx":
		rows, err = r.readWorkbook()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row",
			strings.ToUpper(r.fileType))
	}
	return r.processRows(rows)
}

// readDelimited reads a comma- or tab-separated file in full.
func (r *Reader) readDelimited(comma rune) ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", strings.ToUpper(r.fileType), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", strings.ToUpper(r.fileType), err)
	}
	log.Printf("[TabularReader] %s file read (%d rows)", strings.ToUpper(r.fileType), len(rows))
	return rows, nil
}

// readWorkbook reads the first sheet of an Excel workbook.
func (r *Reader) readWorkbook() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[TabularReader] sheet %s read (%d rows)", sheet, len(rows))
	return rows, nil
}

// processRows converts raw string rows into a distribution.
func (r *Reader) processRows(rows [][]string) (*dist.Distribution, error) {
	idx := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		idx[strings.TrimSpace(header)] = i
	}
	groupIdx, ok := idx[r.cols.Group]
	if !ok {
		return nil, fmt.Errorf("column %q not found in %s", r.cols.Group, r.filePath)
	}
	measureIdx, ok := idx[r.cols.Measure]
	if !ok {
		return nil, fmt.Errorf("column %q not found in %s", r.cols.Measure, r.filePath)
	}
	subjectIdx, hasSubject := idx[r.cols.Subject]

	name := strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	d := dist.New(name)
	for i := 1; i < len(rows); i++ {
		obs := dist.Observation{
			Group:   cell(rows[i], groupIdx),
			Measure: math.NaN(),
		}
		if obs.Group == "" {
			return nil, fmt.Errorf("row %d: empty %s value", i+1, r.cols.Group)
		}
		if hasSubject {
			obs.Subject = cell(rows[i], subjectIdx)
		}
		if raw := cell(rows[i], measureIdx); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: measure %q is not numeric", i+1, raw)
			}
			obs.Measure = v
		}
		d.Rows = append(d.Rows, obs)
	}

	log.Printf("[TabularReader] %s file processed (%d observations, %d groups)",
		strings.ToUpper(r.fileType), d.Len(), len(d.Groups()))
	return d, nil
}

// cell returns the trimmed cell at idx. Workbook rows truncate trailing
// empty cells, so a short row reads as empty.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
