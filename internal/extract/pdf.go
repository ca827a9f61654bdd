package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// PDFExtractor pulls the plain text out of every page of a PDF.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Name() string {
	return "pdf"
}

func (e *PDFExtractor) CanExtract(filename string) bool {
	return Extension(filename) == "pdf"
}

func (e *PDFExtractor) Extract(data []byte) (text string, err error) {
	// The pdf lexer panics on malformed input instead of returning an
	// error, and this runs outside any HTTP recover middleware.
	defer func() {
		if r := recover(); r != nil {
			err = &models.IngestionError{Format: "pdf", Err: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &models.IngestionError{Format: "pdf", Err: err}
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", &models.IngestionError{Format: "pdf", Err: err}
	}

	var b bytes.Buffer
	if _, err := b.ReadFrom(reader); err != nil {
		return "", &models.IngestionError{Format: "pdf", Err: err}
	}
	return b.String(), nil
}
