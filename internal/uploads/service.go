package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"tenant-ingest/internal/extract"
	"tenant-ingest/internal/shared/metrics"
	"tenant-ingest/internal/shared/storage/object"
	"tenant-ingest/internal/shared/telemetry"
	"tenant-ingest/internal/summarize"
	"tenant-ingest/internal/tenants"
)

const fileTimestampLayout = "20060102150405.000000"

// Resolver maps a tenant name to its database name.
type Resolver interface {
	Resolve(ctx context.Context, tenantName string) (string, error)
}

// Timeouts bound each external step. Zero means no extra bound.
type Timeouts struct {
	Extract   time.Duration
	Summarize time.Duration
	Store     time.Duration
}

// Service sequences one upload from provisioning to the stored record.
type Service struct {
	Tenants    Resolver
	Blobs      object.ObjectStore
	Extractor  extract.Extractor
	Summarizer summarize.Summarizer
	Accessor   Accessor
	Timeouts   Timeouts

	Now   func() time.Time
	NewID func() string
}

// Ingest provisions the tenant, saves the raw file, extracts and summarizes
// its text and writes one record to the tenant's collection. The record is
// only written after every earlier step succeeded. Failures are *StepError.
func (s *Service) Ingest(ctx context.Context, tenantName, fileName string, data []byte) (rec Record, err error) {
	start := time.Now()
	defer func() {
		var (
			step Step
			se   *StepError
		)
		if errors.As(err, &se) {
			step = se.Step
		}
		metrics.ObserveIngest(string(step), time.Since(start))
	}()

	tenantName = strings.TrimSpace(tenantName)
	if tenantName == "" {
		return Record{}, stepError(StepValidate, ErrInvalidInput, errors.New("tenantName is required"))
	}
	original := cleanFileName(fileName)
	if original == "" {
		return Record{}, stepError(StepValidate, ErrInvalidInput, errors.New("file name is required"))
	}
	if len(data) == 0 {
		return Record{}, stepError(StepValidate, ErrInvalidInput, errors.New("file is empty"))
	}

	dbName, err := s.provision(ctx, tenantName)
	if err != nil {
		return Record{}, err
	}

	uploadedAt := s.now().UTC().Truncate(time.Microsecond)
	storedName := StoredFileName(tenantName, uploadedAt, original)

	blobKey, size, mimeType, err := s.saveBlob(ctx, dbName, storedName, data)
	if err != nil {
		return Record{}, stepError(StepSaveBlob, ErrStore, err)
	}

	text, err := s.extract(ctx, data, mimeType, original)
	if err != nil {
		return Record{}, stepError(StepExtract, ErrExtraction, err)
	}

	summary, err := s.summarize(ctx, text)
	if err != nil {
		return Record{}, stepError(StepSummarize, ErrSummarization, err)
	}

	rec = Record{
		ID:               s.newID(),
		TenantName:       tenantName,
		FileName:         storedName,
		OriginalFileName: original,
		UploadedAt:       uploadedAt,
		ExtractedText:    text,
		Summary:          summary,
		FilePath:         blobKey,
		SizeBytes:        size,
		MimeType:         mimeType,
		DBName:           dbName,
	}
	if err := s.storeRecord(ctx, dbName, rec); err != nil {
		return Record{}, stepError(StepStoreRecord, ErrStore, err)
	}

	telemetry.Info("ingest.stored", map[string]any{
		"tenant":     tenantName,
		"db_name":    dbName,
		"record_id":  rec.ID,
		"file_name":  storedName,
		"size_bytes": size,
		"text_len":   len(text),
	})
	return rec, nil
}

func (s *Service) provision(ctx context.Context, tenantName string) (string, error) {
	if s.Tenants == nil {
		return "", stepError(StepProvision, ErrDirectory, errors.New("tenant resolver not configured"))
	}
	ctx, cancel := withTimeout(ctx, s.Timeouts.Store)
	defer cancel()
	dbName, err := s.Tenants.Resolve(ctx, tenantName)
	if err != nil {
		if errors.Is(err, tenants.ErrInvalidTenantName) {
			return "", stepError(StepProvision, ErrInvalidInput, err)
		}
		return "", stepError(StepProvision, ErrDirectory, err)
	}
	return dbName, nil
}

func (s *Service) saveBlob(ctx context.Context, dbName, name string, data []byte) (string, int64, string, error) {
	if s.Blobs == nil {
		return "", 0, "", errors.New("blob store not configured")
	}
	ctx, cancel := withTimeout(ctx, s.Timeouts.Store)
	defer cancel()
	return s.Blobs.Save(ctx, dbName, name, bytes.NewReader(data))
}

func (s *Service) extract(ctx context.Context, data []byte, mimeType, name string) (string, error) {
	if s.Extractor == nil {
		return "", errors.New("extractor not configured")
	}
	ctx, cancel := withTimeout(ctx, s.Timeouts.Extract)
	defer cancel()
	return s.Extractor.Extract(ctx, data, mimeType, name)
}

func (s *Service) summarize(ctx context.Context, text string) (string, error) {
	if s.Summarizer == nil {
		return "", errors.New("summarizer not configured")
	}
	ctx, cancel := withTimeout(ctx, s.Timeouts.Summarize)
	defer cancel()
	summary, err := s.Summarizer.Summarize(ctx, text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", summarize.ErrEmpty
	}
	return summary, nil
}

func (s *Service) storeRecord(ctx context.Context, dbName string, rec Record) error {
	if s.Accessor == nil {
		return errors.New("tenant data store not configured")
	}
	coll, err := s.Accessor.Open(dbName)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbName, err)
	}
	ctx, cancel := withTimeout(ctx, s.Timeouts.Store)
	defer cancel()
	return coll.Insert(ctx, rec)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// StoredFileName builds "<tenant>_<timestamp>_<original>" with path
// separators and whitespace runs in the tenant part replaced.
func StoredFileName(tenantName string, at time.Time, original string) string {
	tenant := strings.Join(strings.Fields(tenantName), "_")
	tenant = strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(tenant)
	return tenant + "_" + at.UTC().Format(fileTimestampLayout) + "_" + original
}

// cleanFileName drops any client-side directory and traversal sequences.
func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return strings.ReplaceAll(base, "..", "_")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
