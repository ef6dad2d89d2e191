package textextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Account Statement</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Salary </w:t></w:r><w:r><w:t>5000 SAR</w:t></w:r></w:p>
    <w:p></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>تابي قسط 250</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDOCX(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})

	text, err := DOCX(data)
	require.NoError(t, err)
	assert.Equal(t, "Account Statement\nSalary 5000 SAR\nتابي قسط 250", text)
}

func TestDOCX_Errors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		_, err := DOCX([]byte("plain text"))
		assert.Error(t, err)
	})

	t.Run("missing body", func(t *testing.T) {
		_, err := DOCX(buildDocx(t, map[string]string{"word/styles.xml": "<styles/>"}))
		assert.ErrorIs(t, err, ErrNoDocumentBody)
	})

	t.Run("broken xml", func(t *testing.T) {
		_, err := DOCX(buildDocx(t, map[string]string{"word/document.xml": "<w:document><w:body>"}))
		assert.Error(t, err)
	})
}

func TestDOCX_EmptyDocument(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body/></w:document>`,
	})
	text, err := DOCX(data)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestPDF_Invalid(t *testing.T) {
	_, err := PDF([]byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	data := buildDocx(t, map[string]string{"word/document.xml": documentXML})

	text, err := Extract(".DOCX", data)
	require.NoError(t, err)
	assert.Contains(t, text, "Salary 5000 SAR")

	_, err = Extract(".txt", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
