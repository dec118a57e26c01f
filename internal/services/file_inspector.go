package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeDOC  = "application/msword"
)

// acceptedTypes maps every accepted CV MIME type to its extension.
var acceptedTypes = map[string]string{
	MIMETypePDF:  ".pdf",
	MIMETypeDOCX: ".docx",
	MIMETypeDOC:  ".doc",
}

type FileInspector interface {
	IsAccepted(file *models.UploadedFile) bool
	DetectMIMEType(file *models.UploadedFile) string
	CountPages(file *models.UploadedFile) (int, error)
	Summarize(file *models.UploadedFile) models.FileSummary
}

type fileInspector struct{}

func NewFileInspector() FileInspector {
	return &fileInspector{}
}

// IsAccepted reports whether the declared type, the sniffed type or the
// extension names a PDF, DOCX or DOC document.
func (i *fileInspector) IsAccepted(file *models.UploadedFile) bool {
	if file == nil {
		return false
	}

	if _, ok := acceptedTypes[baseMediaType(file.MIMEType)]; ok {
		return true
	}

	if len(file.Data) > 0 {
		if _, ok := acceptedTypes[i.DetectMIMEType(file)]; ok {
			return true
		}
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	for _, accepted := range acceptedTypes {
		if ext == accepted {
			return true
		}
	}

	return false
}

// DetectMIMEType sniffs the content. Zip and OLE containers are narrowed to
// the Word types using the file extension.
func (i *fileInspector) DetectMIMEType(file *models.UploadedFile) string {
	if file == nil || len(file.Data) == 0 {
		return ""
	}

	detected := mimetype.Detect(file.Data)
	for m := detected; m != nil; m = m.Parent() {
		if _, ok := acceptedTypes[baseMediaType(m.String())]; ok {
			return baseMediaType(m.String())
		}
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	switch {
	case detected.Is("application/zip") && ext == ".docx":
		return MIMETypeDOCX
	case detected.Is("application/x-ole-storage") && ext == ".doc":
		return MIMETypeDOC
	}

	return baseMediaType(detected.String())
}

func (i *fileInspector) CountPages(file *models.UploadedFile) (pages int, err error) {
	if file == nil || len(file.Data) == 0 {
		return 0, fmt.Errorf("no file content")
	}

	// The PDF reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	return r.NumPage(), nil
}

// Summarize describes the file for the intake page. Page counts are only
// reported for readable PDFs.
func (i *fileInspector) Summarize(file *models.UploadedFile) models.FileSummary {
	mimeType := baseMediaType(file.MIMEType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = i.DetectMIMEType(file)
	}

	summary := models.FileSummary{
		Name:     file.Name,
		Size:     file.Size,
		SizeMB:   float64(file.Size) / 1024 / 1024,
		MIMEType: mimeType,
	}

	if mimeType == MIMETypePDF {
		if pages, err := i.CountPages(file); err == nil {
			summary.Pages = pages
		}
	}

	return summary
}

func baseMediaType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
