package uploads

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tenant-ingest/internal/shared/server/respond"
)

const (
	defaultMaxUploadBytes = 10 << 20
	multipartMemory       = 8 << 20
)

// Handler wires the upload endpoint to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. maxBytes <= 0 selects 10 MiB.
func NewHandler(svc *Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxBytes}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(c, http.StatusRequestEntityTooLarge, "invalid_input", StepValidate, "file exceeds upload limit")
			return
		}
		h.fail(c, http.StatusBadRequest, "invalid_input", StepValidate, "file is required")
		return
	}

	tenantName := strings.TrimSpace(c.PostForm("tenantName"))
	c.Set("tenant", tenantName)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_input", StepValidate, "file is required")
		return
	}
	if tenantName == "" {
		h.fail(c, http.StatusBadRequest, "invalid_input", StepValidate, "tenantName is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_input", StepValidate, "unable to read file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_input", StepValidate, "unable to read file")
		return
	}

	rec, err := h.Svc.Ingest(c.Request.Context(), tenantName, fileHeader.Filename, data)
	if err != nil {
		var se *StepError
		if !errors.As(err, &se) {
			h.fail(c, http.StatusInternalServerError, "internal", "", "unexpected ingestion failure")
			return
		}
		message := se.Kind.Error()
		if se.Err != nil {
			message = se.Err.Error()
		}
		h.fail(c, StatusFor(se), se.Code(), se.Step, message)
		return
	}

	c.Set("dbName", rec.DBName)
	c.Set("recordId", rec.ID)
	respond.OK(c, toResponse(rec))
}

func (h *Handler) fail(c *gin.Context, status int, code string, step Step, message string) {
	if step != "" {
		c.Set("step", string(step))
	}
	respond.Error(c, status, code, string(step), message)
}

// StatusFor maps a step failure to its HTTP status: caller mistakes and
// unreadable documents are 400, everything else is 500.
func StatusFor(se *StepError) int {
	switch {
	case errors.Is(se, ErrInvalidInput), errors.Is(se, ErrExtraction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
