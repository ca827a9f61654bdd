package extract

import "strings"

// CSVExtractor passes CSV content through as text. The model consumes
// the raw rows directly, so no tabular decoding happens here.
type CSVExtractor struct{}

func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

func (e *CSVExtractor) Name() string {
	return "csv"
}

func (e *CSVExtractor) CanExtract(filename string) bool {
	return Extension(filename) == "csv"
}

func (e *CSVExtractor) Extract(data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), "�"), nil
}
