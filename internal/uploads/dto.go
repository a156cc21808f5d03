package uploads

import (
	"time"
	"unicode/utf8"
)

const successMessage = "PDF successfully processed and stored."

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Tenant           string    `json:"tenant"`
	FileName         string    `json:"fileName"`
	Summary          string    `json:"summary"`
	Status           string    `json:"status"`
	UploadTimestamp  time.Time `json:"uploadTimestamp"`
	ExtractedTextLen int       `json:"extractedTextLen"`
	RecordID         string    `json:"recordId"`
	Message          string    `json:"message"`
}

func toResponse(rec Record) UploadResponse {
	return UploadResponse{
		Tenant:           rec.TenantName,
		FileName:         rec.FileName,
		Summary:          rec.Summary,
		Status:           "Success",
		UploadTimestamp:  rec.UploadedAt,
		ExtractedTextLen: utf8.RuneCountInString(rec.ExtractedText),
		RecordID:         rec.ID,
		Message:          successMessage,
	}
}
