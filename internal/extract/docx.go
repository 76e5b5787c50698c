package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DOCX/ODT are zips; the document body lives in a well-known entry.
const (
	docxBodyPath = "word/document.xml"
	odtBodyPath  = "content.xml"
)

// textNode matches <w:t> runs (DOCX) and <text:p>/<text:span> inner text (ODT),
// with any attributes. Extracting every text node keeps content searchable
// regardless of paragraph/run attributes.
var textNode = regexp.MustCompile(`<(?:w:t|text:p|text:span)[^>]*>([^<]*)</(?:w:t|text:p|text:span)>`)

// extractDOCX extracts text from .docx or .odt bytes.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract document: not a zip: %w", err)
	}

	var bodyXML []byte
	for _, f := range zr.File {
		if f.Name != docxBodyPath && f.Name != odtBodyPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract document: open %s: %w", f.Name, err)
		}
		bodyXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract document: read %s: %w", f.Name, err)
		}
		break
	}
	if bodyXML == nil {
		return "", fmt.Errorf("extract document: no document body entry found")
	}

	parts := textNode.FindAllStringSubmatch(string(bodyXML), -1)
	var b strings.Builder
	for _, p := range parts {
		text := strings.TrimSpace(p[1])
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
