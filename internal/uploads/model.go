package uploads

import "time"

// Record is one ingested upload, stored in its tenant's collection.
type Record struct {
	ID               string    `bson:"_id" json:"id"`
	TenantName       string    `bson:"tenant_name" json:"tenantName"`
	FileName         string    `bson:"file_name" json:"fileName"`
	OriginalFileName string    `bson:"original_file_name" json:"originalFileName"`
	UploadedAt       time.Time `bson:"uploaded_at" json:"uploadedAt"`
	ExtractedText    string    `bson:"extracted_text" json:"extractedText"`
	Summary          string    `bson:"summary" json:"summary"`
	FilePath         string    `bson:"file_path" json:"filePath"`
	SizeBytes        int64     `bson:"size_bytes" json:"sizeBytes"`
	MimeType         string    `bson:"mime_type" json:"mimeType"`

	// DBName is where the record was written. It is implied by the
	// collection and not persisted.
	DBName string `bson:"-" json:"-"`
}
