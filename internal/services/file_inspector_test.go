package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

func TestFileInspector_IsAccepted(t *testing.T) {
	inspector := NewFileInspector()

	tests := []struct {
		name string
		file *models.UploadedFile
		want bool
	}{
		{"declared pdf", &models.UploadedFile{Name: "cv", MIMEType: MIMETypePDF}, true},
		{"declared pdf with params", &models.UploadedFile{Name: "cv", MIMEType: "application/pdf; charset=binary"}, true},
		{"declared docx", &models.UploadedFile{Name: "cv", MIMEType: MIMETypeDOCX}, true},
		{"declared doc", &models.UploadedFile{Name: "cv", MIMEType: MIMETypeDOC}, true},
		{"extension only", &models.UploadedFile{Name: "CV.DOCX", MIMEType: "application/octet-stream"}, true},
		{"sniffed pdf", &models.UploadedFile{Name: "upload.bin", Data: minimalPDF}, true},
		{"plain text", &models.UploadedFile{Name: "cv.txt", MIMEType: "text/plain", Data: []byte("hello")}, false},
		{"image", &models.UploadedFile{Name: "cv.png", MIMEType: "image/png"}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inspector.IsAccepted(tt.file))
		})
	}
}

func TestFileInspector_DetectMIMEType(t *testing.T) {
	inspector := NewFileInspector()

	assert.Equal(t, MIMETypePDF, inspector.DetectMIMEType(&models.UploadedFile{Name: "x", Data: minimalPDF}))
	assert.Empty(t, inspector.DetectMIMEType(&models.UploadedFile{Name: "x"}))
}

func TestFileInspector_CountPagesRejectsGarbage(t *testing.T) {
	inspector := NewFileInspector()

	_, err := inspector.CountPages(&models.UploadedFile{Name: "cv.pdf", Data: []byte("not a pdf")})
	assert.Error(t, err)

	_, err = inspector.CountPages(&models.UploadedFile{Name: "cv.pdf"})
	assert.Error(t, err)
}

func TestFileInspector_Summarize(t *testing.T) {
	inspector := NewFileInspector()

	summary := inspector.Summarize(&models.UploadedFile{
		Name:     "cv.docx",
		Size:     2 * 1024 * 1024,
		MIMEType: MIMETypeDOCX,
	})

	assert.Equal(t, "cv.docx", summary.Name)
	assert.Equal(t, MIMETypeDOCX, summary.MIMEType)
	assert.InDelta(t, 2.0, summary.SizeMB, 0.001)
	assert.Zero(t, summary.Pages)
}
