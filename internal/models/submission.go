package models

// UploadedFile is a file picked on the intake page.
type UploadedFile struct {
	Name     string
	Size     int64
	MIMEType string
	Data     []byte
}

// PendingSubmission is the form state held by the intake until it is sent.
type PendingSubmission struct {
	File           *UploadedFile `validate:"required"`
	JobDescription string        `validate:"required,notblank"`
}

// FileSummary describes the held file on the intake page.
type FileSummary struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	SizeMB   float64 `json:"size_mb"`
	MIMEType string  `json:"mime_type"`
	Pages    int     `json:"pages,omitempty"`
}
