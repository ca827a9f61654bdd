package extract

import (
	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// Registry holds the available extractors and selects one by filename.
type Registry struct {
	extractors []Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			NewCSVExtractor(),
			NewExcelExtractor(),
			NewPDFExtractor(),
		},
	}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Find selects the extractor for a filename. An extension outside the
// recognized set yields an UnsupportedFormatError.
func (r *Registry) Find(filename string) (Extractor, error) {
	for _, e := range r.extractors {
		if e.CanExtract(filename) {
			return e, nil
		}
	}
	return nil, &models.UnsupportedFormatError{Extension: Extension(filename)}
}

// Extract selects the extractor for filename and runs it over data.
func (r *Registry) Extract(filename string, data []byte) (string, error) {
	e, err := r.Find(filename)
	if err != nil {
		return "", err
	}
	return e.Extract(data)
}
