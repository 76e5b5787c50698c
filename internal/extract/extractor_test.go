package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractPlainMarkdown(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("# Title\n\n## Section\nbody"), ".md")
	if err != nil {
		t.Fatal(err)
	}
	// Markdown passes through unchanged so headings survive for the chunker.
	if !strings.Contains(text, "## Section") {
		t.Errorf("heading lost: %q", text)
	}
}

func TestExtractPlainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte{0x68, 0x69, 0xff, 0xfe}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "hi") {
		t.Errorf("text = %q", text)
	}
}

func TestExtractUnknownExtensionTreatedAsPlain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("some notes"), ".log")
	if err != nil {
		t.Fatal(err)
	}
	if text != "some notes" {
		t.Errorf("text = %q", text)
	}
}

func makeDocx(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(bodyXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	body := `<w:document><w:body><w:p w:rsidR="0"><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">world</w:t></w:r></w:p></w:body></w:document>`
	e := NewExtractor()
	text, err := e.ExtractBytes(makeDocx(t, body), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello world" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractDocxNotAZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("nope"), ".docx"); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestExtractFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("## Heading\ncontent"), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	text, err := e.Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "content") {
		t.Errorf("text = %q", text)
	}
	if _, err := e.Extract(filepath.Join(dir, "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}
