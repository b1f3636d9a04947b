// Package resumetext turns uploaded resume files into plain text.
package resumetext

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPlain = "text/plain"
	MIMEHTML  = "text/html"
	MIMEPDF   = "application/pdf"
	MIMEDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extensions = map[string]string{
	".txt":  MIMEPlain,
	".md":   MIMEPlain,
	".htm":  MIMEHTML,
	".html": MIMEHTML,
	".pdf":  MIMEPDF,
	".docx": MIMEDOCX,
}

// UnsupportedTypeError is returned for files that cannot be converted to text.
type UnsupportedTypeError struct {
	MIME string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.MIME)
}

// DetectMIME guesses the file type by extension and falls back to content sniffing.
func DetectMIME(filename string, data []byte) string {
	if known, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return known
	}

	detected := http.DetectContentType(data)
	if media, _, err := mime.ParseMediaType(detected); err == nil {
		return media
	}
	return detected
}

// ExtractText returns the text content of data. Parameters such as charset are ignored.
func ExtractText(mimeType string, data []byte) (string, error) {
	if media, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = media
	}

	var (
		text string
		err  error
	)

	switch mimeType {
	case MIMEPlain:
		text = string(data)
	case MIMEHTML:
		text, err = htmlText(data)
	case MIMEPDF:
		text, err = pdfText(data)
	case MIMEDOCX:
		text, err = docxText(data)
	default:
		return "", &UnsupportedTypeError{MIME: mimeType}
	}
	if err != nil {
		return "", err
	}

	return tidy(text), nil
}

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br, p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return doc.Text(), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	// The content is the raw document XML. Paragraph ends become line breaks
	// before the markup is dropped.
	content := strings.ReplaceAll(doc.Editable().GetContent(), "</w:p>", "</w:p>\n")

	markup, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse docx content: %w", err)
	}

	return markup.Text(), nil
}

// tidy trims every line and collapses runs of blank lines.
func tidy(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	result := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(result) > 0 {
				result = append(result, "")
			}
			blank = true
			continue
		}
		blank = false
		result = append(result, line)
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
