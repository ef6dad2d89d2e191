// Package textextract pulls plain text out of flow-text statement documents
// (Word and PDF). It produces text only; no transaction structure is
// recovered.
package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"gopkg.in/xmlpath.v2"
)

const (
	// maxDocumentXML caps the decompressed size of word/document.xml.
	maxDocumentXML = 64 << 20

	docxBody = "word/document.xml"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoDocumentBody    = errors.New("docx archive has no word/document.xml")
)

// paragraphs selects WordprocessingML paragraphs; xmlpath matches local names.
var paragraphs = xmlpath.MustCompile("//body//p")

// Extract dispatches on a lowercase file extension (".docx", ".pdf").
func Extract(ext string, data []byte) (string, error) {
	switch strings.ToLower(ext) {
	case ".docx":
		return DOCX(data)
	case ".pdf":
		return PDF(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// DOCX returns the paragraph text of a Word document, one paragraph per line.
func DOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", ErrNoDocumentBody
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", docxBody, err)
	}
	defer rc.Close()

	root, err := xmlpath.Parse(io.LimitReader(rc, maxDocumentXML))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", docxBody, err)
	}

	var lines []string
	iter := paragraphs.Iter(root)
	for iter.Next() {
		if text := strings.TrimSpace(iter.Node().String()); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// PDF returns the text of a PDF document, one page per block. The pdf library
// panics on some malformed inputs; those are reported as errors.
func PDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	if len(pages) > 0 {
		return strings.Join(pages, "\n\n"), nil
	}

	// Some producers only yield text through the whole-document reader.
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	all, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	return strings.TrimSpace(string(all)), nil
}
