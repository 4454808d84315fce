package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/alphabatem/common/context"
	"github.com/ledongthuc/pdf"

	"github.com/rephrase-labs/rephrase_api/shared"
)

// DocumentService extracts plain text from uploaded documents so the
// entitlement guard can be fed the real character count before any
// paraphrasing work happens.
type DocumentService struct {
	context.DefaultService
}

const DOCUMENT_SVC = "document_svc"

const MaxUploadBytes = 5 * 1024 * 1024

const (
	contentTypePDF  = "application/pdf"
	contentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	contentTypeText = "text/plain"
)

var supportedDocTypes = map[string]bool{
	contentTypePDF:  true,
	contentTypeDocx: true,
	contentTypeText: true,
}

func (svc DocumentService) Id() string {
	return DOCUMENT_SVC
}

func (svc *DocumentService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *DocumentService) Start() error {
	return nil
}

func (svc *DocumentService) MaxBytes() int64 {
	return MaxUploadBytes
}

func (svc *DocumentService) Supported(contentType string) bool {
	return supportedDocTypes[normalizeContentType(contentType)]
}

// ExtractText returns the document's text content. Failures during parsing
// collapse to a 400: a broken upload is the caller's problem, not ours.
func (svc *DocumentService) ExtractText(fileBytes []byte, contentType string) (string, error) {
	contentType = normalizeContentType(contentType)

	if !supportedDocTypes[contentType] {
		return "", shared.ErrUnsupportedMedia(contentType)
	}

	switch contentType {
	case contentTypePDF:
		return extractPDF(fileBytes)
	case contentTypeDocx:
		return extractDocx(fileBytes)
	default:
		if !utf8.Valid(fileBytes) {
			return "", shared.ErrBadRequest("File is not valid UTF-8 text")
		}
		return string(fileBytes), nil
	}
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}

func extractPDF(fileBytes []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", shared.ErrBadRequest("Failed to extract text from document")
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// extractDocx pulls paragraph text out of word/document.xml. A docx file is
// a zip archive; only the <w:t> runs carry visible text.
func extractDocx(fileBytes []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", shared.ErrBadRequest("Failed to extract text from document")
	}

	var docFile *zip.File
	for _, f := range zipReader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", shared.ErrBadRequest("Failed to extract text from document")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", shared.ErrBadRequest("Failed to extract text from document")
	}
	defer rc.Close()

	decoder := xml.NewDecoder(io.LimitReader(rc, MaxUploadBytes*4))

	var sb strings.Builder
	var inText bool
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", shared.ErrBadRequest("Failed to extract text from document")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
