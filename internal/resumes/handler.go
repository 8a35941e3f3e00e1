package resumes

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/export"
	"resume-ranker/internal/shared/server/respond"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	xlsxMime      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume and job description routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.ingest)
	rg.POST("/resumes/upload", h.upload)
	rg.GET("/resumes/:id", h.get)
	rg.POST("/resumes/:id/reparse", h.reparse)
	rg.GET("/resumes/:id/score", h.score)
	rg.GET("/resumes/:id/compare", h.compare)
	rg.POST("/resumes/:id/missing", h.missing)
	rg.POST("/jd/match", h.match)
	rg.POST("/jd/shortlist", h.shortlist)
	rg.POST("/jd/shortlist/export", h.exportShortlist)
	rg.GET("/cohorts/export", h.exportCohort)
}

func (h *Handler) ingest(c *gin.Context) {
	var req IngestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rec, err := h.Svc.Ingest(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "failed to parse resume")
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(rec))
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	gradYear := 0
	if v := strings.TrimSpace(c.PostForm("graduationYear")); v != "" {
		gradYear, err = strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "graduationYear must be a number", nil)
			return
		}
	}

	rec, err := h.Svc.IngestFile(c.Request.Context(), FileInput{
		IngestInput: IngestInput{
			ResumeID:       c.PostForm("resumeId"),
			StudentID:      c.PostForm("studentId"),
			Batch:          c.PostForm("batch"),
			Department:     c.PostForm("department"),
			GraduationYear: gradYear,
		},
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Body:     file,
	})
	if err != nil {
		writeError(c, err, "failed to upload resume")
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(rec))
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), resumeID(c))
	if err != nil {
		writeError(c, err, "failed to fetch resume")
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) reparse(c *gin.Context) {
	rec, err := h.Svc.Reparse(c.Request.Context(), resumeID(c))
	if err != nil {
		writeError(c, err, "failed to reparse resume")
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) score(c *gin.Context) {
	res, err := h.Svc.Score(c.Request.Context(), resumeID(c))
	if err != nil {
		writeError(c, err, "failed to score resume")
		return
	}
	respond.OK(c, res)
}

func (h *Handler) compare(c *gin.Context) {
	res, err := h.Svc.Compare(c.Request.Context(), resumeID(c))
	if err != nil {
		writeError(c, err, "failed to compare resume")
		return
	}
	respond.OK(c, res)
}

func (h *Handler) missing(c *gin.Context) {
	var req MissingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	res, err := h.Svc.Missing(c.Request.Context(), resumeID(c), req)
	if err != nil {
		writeError(c, err, "failed to compute gaps")
		return
	}
	respond.OK(c, res)
}

func (h *Handler) match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Svc.MatchJD(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "failed to match resumes")
		return
	}
	respond.OK(c, res)
}

func (h *Handler) shortlist(c *gin.Context) {
	var req ShortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Svc.Shortlist(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "failed to shortlist resumes")
		return
	}
	respond.OK(c, res)
}

func (h *Handler) exportShortlist(c *gin.Context) {
	var req ShortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rep, err := h.Svc.ShortlistReport(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "failed to shortlist resumes")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteShortlist(&buf, rep); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build workbook", nil)
		return
	}
	respond.Attachment(c, "shortlist.xlsx", xlsxMime, buf.Bytes())
}

func (h *Handler) exportCohort(c *gin.Context) {
	batch := strings.TrimSpace(c.Query("batch"))
	department := strings.TrimSpace(c.Query("department"))
	rows, err := h.Svc.CohortReport(c.Request.Context(), batch, department)
	if err != nil {
		writeError(c, err, "failed to list cohort")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCohort(&buf, batch, department, rows); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build workbook", nil)
		return
	}
	respond.Attachment(c, "cohort.xlsx", xlsxMime, buf.Bytes())
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidMode):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, ErrNoSource):
		respond.Error(c, http.StatusConflict, "no_source", err.Error(), nil)
	case errors.Is(err, ErrEmbeddingsUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "embeddings_unavailable", ErrEmbeddingsUnavailable.Error(), nil)
	case errors.Is(err, ErrInvalidSchema):
		respond.Error(c, http.StatusInternalServerError, "invalid_schema", ErrInvalidSchema.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func toResponse(rec Record) gin.H {
	return gin.H{
		"resumeId":        rec.ID,
		"studentId":       rec.StudentID,
		"batch":           rec.Batch,
		"department":      rec.Department,
		"score":           rec.Score,
		"schema":          rec.Resume,
		"sourceName":      rec.SourceName,
		"embeddingStatus": rec.EmbeddingStatus,
		"embeddingModel":  rec.EmbeddingModel,
		"embeddingError":  rec.EmbeddingError,
		"createdAt":       rec.CreatedAt,
		"updatedAt":       rec.UpdatedAt,
	}
}

// resumeID reads the :id path param and tags the request log with it.
func resumeID(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("resumeId", id)
	return id
}
