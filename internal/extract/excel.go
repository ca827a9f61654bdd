package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// ExcelExtractor converts spreadsheet workbooks to text, one CSV-style
// line per row, sheets separated by a header line.
type ExcelExtractor struct{}

func NewExcelExtractor() *ExcelExtractor {
	return &ExcelExtractor{}
}

func (e *ExcelExtractor) Name() string {
	return "excel"
}

func (e *ExcelExtractor) CanExtract(filename string) bool {
	ext := Extension(filename)
	return ext == "xlsx" || ext == "xls"
}

func (e *ExcelExtractor) Extract(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", &models.IngestionError{Format: "spreadsheet", Err: err}
	}
	defer f.Close()

	var b strings.Builder
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", &models.IngestionError{Format: "spreadsheet", Err: err}
		}
		if len(sheets) > 1 {
			fmt.Fprintf(&b, "## %s\n", sheet)
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, ","))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
