package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, name, xml string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(xml)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		contentType string
		ext         string
		want        string
	}{
		{"application/pdf", "", TypePDF},
		{"text/plain; charset=utf-8", ".bin", TypeTXT},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", TypeDOCX},
		{"application/octet-stream", ".PDF", TypePDF},
		{"", ".docx", TypeDOCX},
		{"", "txt", TypeTXT},
		{"image/png", ".png", "png"},
	}
	for _, tt := range tests {
		if got := DetectType(tt.contentType, tt.ext); got != tt.want {
			t.Errorf("DetectType(%q, %q) = %q, want %q", tt.contentType, tt.ext, got, tt.want)
		}
	}
}

func TestExtract_TXT(t *testing.T) {
	data := []byte("\n  Ciao a tutti  \n")
	got, err := Extract(bytes.NewReader(data), int64(len(data)), "text/plain")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Content != "Ciao a tutti" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Metadata["type"] != TypeTXT {
		t.Errorf("type = %q", got.Metadata["type"])
	}
}

func TestExtract_DOCX(t *testing.T) {
	xml := `<?xml version="1.0"?><w:document><w:body>` +
		`<w:p><w:r><w:t>Buenos</w:t></w:r><w:r><w:t>días</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>amigos</w:t></w:r></w:p></w:body></w:document>`
	data := buildDOCX(t, "word/document.xml", xml)

	got, err := ExtractFile("lesson.docx", data)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if got.Content != "Buenos días amigos" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Pages != 1 {
		t.Errorf("Pages = %d", got.Pages)
	}
}

func TestExtract_DOCXWithoutDocument(t *testing.T) {
	data := buildDOCX(t, "word/styles.xml", "<w:styles/>")
	_, err := ExtractFile("empty.docx", data)
	if err == nil || !strings.Contains(err.Error(), "document.xml not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := ExtractFile("slides.pptx", []byte("x"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	data := []byte("%PDF-1.4 truncated")
	if _, err := ExtractFile("broken.pdf", data); err == nil {
		t.Fatal("expected error for corrupt PDF")
	}
}

func TestStripXMLTags(t *testing.T) {
	got := stripXMLTags("<a>one</a>\n<b>two <c>three</c></b>")
	if got != "one two three" {
		t.Errorf("stripXMLTags = %q", got)
	}
}
