package analyses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/records"
	"resume-matcher/internal/shared/server/middleware"
	"resume-matcher/internal/shared/server/respond"
)

const (
	// multipartSlack covers form fields and part headers on top of the file itself.
	multipartSlack     = 1 << 20
	maxRequestBytes    = MaxResumeBytes + multipartSlack
	maxMultipartMemory = 32 << 20

	headerRecordID  = "X-Analysis-Record-Id"
	headerSaveError = "X-Analysis-Save-Error"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, d Draft) (Result, error)
}

// RecordStore persists and reads saved analyses.
type RecordStore interface {
	Save(ctx context.Context, in records.SaveInput) (records.Record, error)
	List(ctx context.Context, userID string, limit, offset int) ([]records.Record, error)
	Get(ctx context.Context, userID, recordID string) (records.Record, error)
	Stats(ctx context.Context, userID string) (records.Stats, error)
}

// Handler wires HTTP handlers to the analysis service and the record store.
type Handler struct {
	Svc     Analyzer
	Records RecordStore
}

// NewHandler constructs a Handler. A nil RecordStore disables saving.
func NewHandler(svc Analyzer, recs RecordStore) *Handler {
	return &Handler{Svc: svc, Records: recs}
}

// RegisterRoutes attaches analysis routes to the router group. analyzeLimit, when not
// nil, runs before the analyze handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, analyzeLimit gin.HandlerFunc) {
	analyze := []gin.HandlerFunc{h.analyze}
	if analyzeLimit != nil {
		analyze = append([]gin.HandlerFunc{analyzeLimit}, analyze...)
	}
	rg.POST("/analyze", analyze...)

	saved := rg.Group("/analyses", middleware.RequireUser())
	saved.POST("", h.saveAnalysis)
	saved.GET("", h.listAnalyses)
	saved.GET("/stats", h.stats)
	saved.GET("/:id", h.getAnalysis)
}

func (h *Handler) analyze(c *gin.Context) {
	draft, ok := readDraft(c)
	if !ok {
		return
	}
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	res, err := h.Svc.Analyze(ctx, draft)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	if strings.EqualFold(strings.TrimSpace(c.PostForm("save")), "true") {
		h.saveAfterAnalysis(ctx, c, draft, res)
	}
	respond.OK(c, res)
}

// saveAfterAnalysis reports the outcome in headers only; the analysis response is
// already decided.
func (h *Handler) saveAfterAnalysis(ctx context.Context, c *gin.Context, draft Draft, res Result) {
	switch {
	case h.Records == nil:
		c.Header(headerSaveError, "saving is not available")
	case middleware.IsGuest(c):
		c.Header(headerSaveError, "sign in to save analyses")
	default:
		record, err := h.Records.Save(ctx, saveInput(middleware.UserIDFromContext(c), draft, res))
		if err != nil {
			c.Header(headerSaveError, "could not save analysis")
			return
		}
		c.Set(middleware.RecordIDKey, record.ID)
		c.Header(headerRecordID, record.ID)
	}
}

func (h *Handler) saveAnalysis(c *gin.Context) {
	if h.Records == nil {
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "saving is not available")
		return
	}
	draft, ok := readDraft(c)
	if !ok {
		return
	}
	if err := draft.Validate(); err != nil {
		writeAnalysisError(c, err)
		return
	}
	raw := c.PostForm("result")
	if strings.TrimSpace(raw) == "" {
		writeAnalysisError(c, validationError("result", "a result is required"))
		return
	}
	res, err := ValidateResult(raw)
	if err != nil {
		var ae *Error
		field, msg := "result", sanitizeError(err)
		if errors.As(err, &ae) {
			if ae.Field != "" {
				field = "result." + ae.Field
			}
			msg = ae.Msg
		}
		writeAnalysisError(c, validationError(field, msg))
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	record, err := h.Records.Save(ctx, saveInput(middleware.UserIDFromContext(c), draft, res))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "persistence_failed", "could not save analysis")
		return
	}
	c.Set(middleware.RecordIDKey, record.ID)
	respond.Created(c, record)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	if h.Records == nil {
		respond.OK(c, gin.H{"items": []records.Record{}, "limit": 0, "offset": 0})
		return
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, string(KindValidationFailed), "limit must be a non-negative integer")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, string(KindValidationFailed), "offset must be a non-negative integer")
		return
	}

	items, err := h.Records.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses")
		return
	}
	respond.OK(c, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) stats(c *gin.Context) {
	if h.Records == nil {
		respond.OK(c, records.Stats{})
		return
	}
	stats, err := h.Records.Stats(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	if h.Records == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found")
		return
	}
	record, err := h.Records.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis")
		return
	}
	respond.OK(c, record)
}

// readDraft parses the multipart form. It answers the request itself and returns false
// when the body cannot be read at all; missing fields are left to Draft validation.
func readDraft(c *gin.Context) (Draft, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAnalysisError(c, validationError("resume", fmt.Sprintf("request exceeds %d bytes", maxRequestBytes)))
			return Draft{}, false
		}
		writeAnalysisError(c, validationError("resume", "expected a multipart/form-data body with a resume file"))
		return Draft{}, false
	}

	draft := Draft{JobDescription: c.PostForm("jd")}
	header, err := c.FormFile("resume")
	if err != nil {
		return draft, true
	}
	data, err := readPart(header)
	if err != nil {
		writeAnalysisError(c, validationError("resume", "could not read the uploaded file"))
		return Draft{}, false
	}
	draft.Resume = &UploadedResume{
		FileName:  header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Data:      data,
	}
	return draft, true
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// One byte past the maximum is enough for validation to report the size.
	return io.ReadAll(io.LimitReader(f, MaxResumeBytes+1))
}

func saveInput(userID string, draft Draft, res Result) records.SaveInput {
	in := records.SaveInput{
		UserID:         userID,
		JobDescription: strings.TrimSpace(draft.JobDescription),
		MatchScore:     res.MatchScore,
		SkillsMatched:  res.SkillsMatched,
		MissingSkills:  res.MissingSkills,
		Suggestions:    res.Suggestions,
	}
	if draft.Resume != nil {
		in.FileName = draft.Resume.FileName
		in.ContentType = draft.Resume.MediaType
		in.Data = draft.Resume.Data
	}
	for _, e := range res.ExtraEdgeSuggestions {
		in.ExtraEdgeSuggestions = append(in.ExtraEdgeSuggestions, records.EdgeSuggestion{Title: e.Title, Description: e.Description})
	}
	return in
}

// statusFor maps an analysis failure to its HTTP status.
func statusFor(err error) int {
	switch KindOf(err) {
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case KindUpstream:
		var ae *Error
		if errors.As(err, &ae) && ae.Err != nil && llm.IsTimeout(ae.Err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case KindSchemaValidationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeAnalysisError(c *gin.Context, err error) {
	kind := KindOf(err)
	status := statusFor(err)
	if kind == "" {
		respond.Error(c, status, "internal_error", "unexpected error")
		return
	}
	c.Set(middleware.AnalysisKindKey, string(kind))
	respond.Error(c, status, string(kind), clientDetail(err))
}

// clientDetail names the field and the problem without leaking wrapped provider errors.
func clientDetail(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return ""
	}
	detail := ae.Msg
	if ae.Field != "" {
		detail = ae.Field + ": " + detail
	}
	return sanitizeError(errors.New(detail))
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
