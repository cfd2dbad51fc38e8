package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading mart tables from CSV files or an Excel workbook
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger}
}

// WithLogger overrides the reader's logger
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	r.logger = logger
	return r
}

// FileType returns "csv" or "xlsx"
func (r *DataReader) FileType() string {
	return r.fileType
}

// ReadTable reads one mart. For CSV files the whole file is the table; for
// workbooks the sheet named after the mart key is read.
func (r *DataReader) ReadTable(name core.MartKey) (*mart.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewNotFoundError(strings.ToUpper(r.fileType)+" file", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readSheetRows(name.String())
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	table, err := r.processRows(rows)
	if err != nil {
		return nil, err
	}
	table.Name = name
	table.Source = r.filePath
	return table, nil
}

// SheetNames lists the sheets of a workbook
func (r *DataReader) SheetNames() ([]string, error) {
	if r.fileType != "xlsx" {
		return nil, fmt.Errorf("sheet listing requires an xlsx file, got %s", r.fileType)
	}
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// readSheetRows reads the named sheet of the workbook
func (r *DataReader) readSheetRows(sheet string) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, core.NewNotFoundError("sheet", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.logger.Debug("[DataReader] Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads CSV data
func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.logger.Debug("[DataReader] CSV file %s read in %.2fms (%d rows)", filepath.Base(r.filePath), float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows converts raw string rows into a table keyed by header
func (r *DataReader) processRows(rows [][]string) (*mart.Table, error) {
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s file must have a header row", strings.ToUpper(r.fileType))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		// Excel exports often carry a UTF-8 BOM on the first header
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	records := make([]mart.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(mart.Record, len(headers))
		for j, header := range headers {
			if j < len(row) {
				record[header] = strings.TrimSpace(row[j])
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}

	return &mart.Table{
		Columns: headers,
		Records: records,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
