package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/rephrase-labs/rephrase_api/shared"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}

	return buf.Bytes()
}

func TestExtractTextPlain(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	text, err := svc.ExtractText([]byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("expected passthrough text, got %q", text)
	}
}

func TestExtractTextPlainWithCharsetParam(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	text, err := svc.ExtractText([]byte("hello"), "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("content type parameters must be stripped, got %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected %q, got %q", "hello", text)
	}
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	_, err := svc.ExtractText([]byte{0xff, 0xfe, 0xfd}, "text/plain")
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Code != shared.CodeBadRequest {
		t.Fatalf("expected bad request for invalid utf-8, got %v", err)
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	_, err := svc.ExtractText([]byte("%!PS"), "application/postscript")
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Code != shared.CodeUnsupportedMedia {
		t.Fatalf("expected UNSUPPORTED_MEDIA_TYPE, got %s", appErr.Code)
	}
}

func TestExtractTextDocx(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := svc.ExtractText(buildDocx(t, doc), contentTypeDocx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, "First paragraph.") {
		t.Fatalf("missing first paragraph in %q", text)
	}
	if !strings.Contains(text, "Second paragraph.") {
		t.Fatalf("split runs must concatenate, got %q", text)
	}
	if !strings.Contains(text, "First paragraph.\n") {
		t.Fatalf("paragraph boundary must become a newline, got %q", text)
	}
}

func TestExtractTextCorruptDocx(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	_, err := svc.ExtractText([]byte("not a zip archive"), contentTypeDocx)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Code != shared.CodeBadRequest {
		t.Fatalf("expected bad request for corrupt docx, got %v", err)
	}
}

func TestExtractTextDocxMissingDocument(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, _ := w.Create("word/styles.xml")
	_, _ = f.Write([]byte("<w:styles/>"))
	_ = w.Close()

	_, err := svc.ExtractText(buf.Bytes(), contentTypeDocx)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Code != shared.CodeBadRequest {
		t.Fatalf("expected bad request without word/document.xml, got %v", err)
	}
}

func TestExtractTextCorruptPDF(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	_, err := svc.ExtractText([]byte("definitely not a pdf"), contentTypePDF)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Code != shared.CodeBadRequest {
		t.Fatalf("expected bad request for corrupt pdf, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	t.Parallel()

	svc := &DocumentService{}

	for _, ct := range []string{contentTypePDF, contentTypeDocx, contentTypeText, "TEXT/PLAIN", "application/pdf; foo=bar"} {
		if !svc.Supported(ct) {
			t.Fatalf("content type %q should be supported", ct)
		}
	}
	for _, ct := range []string{"", "image/png", "application/msword"} {
		if svc.Supported(ct) {
			t.Fatalf("content type %q should not be supported", ct)
		}
	}
}
