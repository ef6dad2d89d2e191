package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

// Format is an accepted upload format, keyed by file extension.
type Format string

const (
	FormatXLSX Format = ".xlsx"
	FormatCSV  Format = ".csv"
	FormatDOCX Format = ".docx"
	FormatPDF  Format = ".pdf"
)

// Formats lists every accepted format.
var Formats = []Format{FormatXLSX, FormatCSV, FormatDOCX, FormatPDF}

// Tabular reports whether the format carries a cell grid.
func (f Format) Tabular() bool {
	return f == FormatXLSX || f == FormatCSV
}

// Name is the format without its leading dot.
func (f Format) Name() string {
	return strings.TrimPrefix(string(f), ".")
}

// DetectFormat resolves the format of filename from its extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range Formats {
		if Format(ext) == f {
			return f, nil
		}
	}
	if ext == "" {
		ext = "(none)"
	}
	return "", statement.NewValidationError("file",
		fmt.Sprintf("extension %s is not supported; upload one of .xlsx, .csv, .docx or .pdf", ext),
		statement.ErrUnsupportedFileType)
}
