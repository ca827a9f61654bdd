package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

func TestRegistry_Find(t *testing.T) {
	reg := NewRegistry()

	t.Run("supported extensions", func(t *testing.T) {
		cases := map[string]string{
			"data.csv":    "csv",
			"report.xlsx": "excel",
			"legacy.XLS":  "excel",
			"Manual.PDF":  "pdf",
		}
		for filename, want := range cases {
			e, err := reg.Find(filename)
			if err != nil {
				t.Fatalf("Find(%q) failed: %v", filename, err)
			}
			if e.Name() != want {
				t.Errorf("Find(%q) = %s, want %s", filename, e.Name(), want)
			}
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := reg.Find("report.docx")
		if err == nil {
			t.Fatal("expected error for .docx")
		}
		var ufe *models.UnsupportedFormatError
		if !errors.As(err, &ufe) {
			t.Fatalf("expected UnsupportedFormatError, got %T", err)
		}
		if ufe.Extension != "docx" {
			t.Errorf("Extension = %q, want %q", ufe.Extension, "docx")
		}
	})

	t.Run("no extension", func(t *testing.T) {
		_, err := reg.Find("README")
		var ufe *models.UnsupportedFormatError
		if !errors.As(err, &ufe) {
			t.Fatalf("expected UnsupportedFormatError, got %v", err)
		}
	})
}

func TestCSVExtractor(t *testing.T) {
	e := NewCSVExtractor()

	t.Run("passthrough", func(t *testing.T) {
		text, err := e.Extract([]byte("a,b\n1,2"))
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if text != "a,b\n1,2" {
			t.Errorf("Extract = %q, want passthrough", text)
		}
	})

	t.Run("invalid utf8 sanitized", func(t *testing.T) {
		text, err := e.Extract([]byte{'a', 0xff, 'b'})
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if !strings.Contains(text, "a") || !strings.Contains(text, "b") {
			t.Errorf("Extract = %q, lost valid bytes", text)
		}
		if strings.ContainsRune(text, 0xff) {
			t.Errorf("Extract = %q, still contains invalid byte", text)
		}
	})
}

func TestExcelExtractor(t *testing.T) {
	e := NewExcelExtractor()

	t.Run("workbook to text", func(t *testing.T) {
		f := excelize.NewFile()
		for cell, value := range map[string]any{
			"A1": "name", "B1": "amount",
			"A2": "widgets", "B2": 42,
		} {
			if err := f.SetCellValue("Sheet1", cell, value); err != nil {
				t.Fatalf("SetCellValue failed: %v", err)
			}
		}
		buf, err := f.WriteToBuffer()
		if err != nil {
			t.Fatalf("WriteToBuffer failed: %v", err)
		}

		text, err := e.Extract(buf.Bytes())
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if !strings.Contains(text, "name,amount") {
			t.Errorf("missing header row in %q", text)
		}
		if !strings.Contains(text, "widgets,42") {
			t.Errorf("missing data row in %q", text)
		}
	})

	t.Run("garbage bytes", func(t *testing.T) {
		_, err := e.Extract([]byte("not a workbook"))
		var ie *models.IngestionError
		if !errors.As(err, &ie) {
			t.Fatalf("expected IngestionError, got %v", err)
		}
	})
}

func TestPDFExtractor_GarbageBytes(t *testing.T) {
	e := NewPDFExtractor()
	_, err := e.Extract([]byte("not a pdf"))
	var ie *models.IngestionError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
}

func TestRegistry_Extract(t *testing.T) {
	reg := NewRegistry()

	text, err := reg.Extract("data.csv", []byte("a,b\n1,2"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "a,b\n1,2" {
		t.Errorf("Extract = %q, want passthrough", text)
	}

	_, err = reg.Extract("report.docx", []byte("whatever"))
	var ufe *models.UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
}
