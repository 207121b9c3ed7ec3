package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/compliancewatch/internal/app"
	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/embedding"
	"github.com/ppiankov/compliancewatch/internal/history"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// Handler serves the HTTP routes.
type Handler struct {
	app     *app.App
	version string
}

// NewHandler creates a handler backed by a.
func NewHandler(a *app.App, version string) *Handler {
	return &Handler{app: a, version: version}
}

// AssessRequest is the body of the assess endpoints.
type AssessRequest struct {
	Category     string `json:"category"`
	SourceSystem string `json:"source_system"`
	Payload      any    `json:"payload"`
}

// PolicyRequest is the body of POST /v1/policies.
type PolicyRequest struct {
	DocID         string `json:"doc_id" binding:"required"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	EffectiveFrom string `json:"effective_from"`
	Scope         string `json:"scope"`
}

// CaseRequest is the body of POST /v1/cases.
type CaseRequest struct {
	CaseID   string `json:"case_id" binding:"required"`
	Summary  string `json:"summary"`
	Decision string `json:"decision"`
	Reasons  string `json:"reasons"`
	Tags     any    `json:"tags"`
	TagsJSON any    `json:"tags_json"`
}

// ScoreRequest is the body of POST /v1/score.
type ScoreRequest struct {
	Signals    []model.RiskSignal   `json:"signals"`
	PolicyHits []model.RetrievalHit `json:"policy_hits"`
	CaseHits   []model.RetrievalHit `json:"case_hits"`
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	counts := h.app.Store().Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"version":     h.version,
		"backend":     h.app.Engine().BackendName(),
		"config_hash": h.app.ConfigHash(),
		"policies":    counts.Policies,
		"cases":       counts.Cases,
	})
}

// Assess handles POST /v1/assess.
func (h *Handler) Assess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	category, err := parseCategory(req.Category, req.SourceSystem)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	result, err := h.app.Engine().Assess(c.Request.Context(), category, req.Payload)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AssessContext handles POST /v1/assess/context.
func (h *Handler) AssessContext(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	category, err := parseCategory(req.Category, req.SourceSystem)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	result, err := h.app.Engine().AssessContext(c.Request.Context(), category, req.Payload)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CalculateScore handles POST /v1/score.
func (h *Handler) CalculateScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	engine := h.app.Engine()
	engine.EnsureSeeded(c.Request.Context())
	c.JSON(http.StatusOK, engine.CalculateScore(nonNil(req.Signals), nonNil(req.PolicyHits), nonNil(req.CaseHits)))
}

// DemoPayload handles GET /v1/demo/:category.
func (h *Handler) DemoPayload(c *gin.Context) {
	category, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, assess.DemoPayload(category))
}

// AssessDemo handles POST /v1/demo/:category/assess.
func (h *Handler) AssessDemo(c *gin.Context) {
	category, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	result, err := h.app.Engine().AssessDemo(c.Request.Context(), category)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SchemaHint handles GET /v1/schema/:category.
func (h *Handler) SchemaHint(c *gin.Context) {
	category, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, assess.SchemaHint(category))
}

// Seed handles POST /v1/seed.
func (h *Handler) Seed(c *gin.Context) {
	counts, seeded := h.app.Store().Seed()
	c.JSON(http.StatusOK, gin.H{"policies": counts.Policies, "cases": counts.Cases, "seeded": seeded})
}

// IngestPolicy handles POST /v1/policies.
func (h *Handler) IngestPolicy(c *gin.Context) {
	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	counts, err := h.app.Store().IngestPolicy(model.PolicyDocument{
		ID:            req.DocID,
		Title:         req.Title,
		Content:       req.Content,
		EffectiveFrom: req.EffectiveFrom,
		Scope:         req.Scope,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.DocID, "policies": counts.Policies, "cases": counts.Cases})
}

// IngestCase handles POST /v1/cases.
func (h *Handler) IngestCase(c *gin.Context) {
	var req CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	tags := req.Tags
	if tags == nil {
		tags = req.TagsJSON
	}
	counts, err := h.app.Store().IngestCase(model.CaseDocument{
		ID:       req.CaseID,
		Summary:  req.Summary,
		Decision: model.Decision(req.Decision),
		Reasons:  req.Reasons,
		Tags:     knowledge.ParseTags(tags),
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.CaseID, "policies": counts.Policies, "cases": counts.Cases})
}

// GetDocument handles GET /v1/documents/:id.
func (h *Handler) GetDocument(c *gin.Context) {
	id := c.Param("id")
	h.app.Engine().EnsureSeeded(c.Request.Context())

	store := h.app.Store()
	docType := model.CitationPolicy
	raw := store.PolicyJSON(id)
	if raw == "" {
		docType = model.CitationCase
		raw = store.CaseJSON(id)
	}
	if raw == "" {
		respondError(c, http.StatusNotFound, "NOT_FOUND", errors.New("document not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "type": docType, "document": json.RawMessage(raw)})
}

// ListHistory handles GET /v1/history.
func (h *Handler) ListHistory(c *gin.Context) {
	store := h.app.History()
	if store == nil {
		respondError(c, http.StatusNotFound, "HISTORY_DISABLED", errors.New("history_db is not configured"))
		return
	}

	f := history.Filter{
		Category: c.Query("category"),
		Level:    c.Query("level"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", errors.New("limit must be a non-negative integer"))
			return
		}
		f.Limit = n
	}
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_SINCE", err)
			return
		}
		f.Since = time.Now().Add(-d)
	}

	entries, err := store.List(c.Request.Context(), f)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": entries})
}

// GetHistory handles GET /v1/history/:id.
func (h *Handler) GetHistory(c *gin.Context) {
	store := h.app.History()
	if store == nil {
		respondError(c, http.StatusNotFound, "HISTORY_DISABLED", errors.New("history_db is not configured"))
		return
	}
	result, err := store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseCategory(category, alias string) (model.Category, error) {
	if strings.TrimSpace(category) == "" {
		category = alias
	}
	return model.ParseCategory(category)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func respondError(c *gin.Context, status int, code string, err error) {
	c.Error(err)
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}

// respondDomainError maps domain errors onto HTTP status codes.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnknownCategory):
		respondError(c, http.StatusBadRequest, "UNKNOWN_CATEGORY", err)
	case errors.Is(err, model.ErrUnknownDecision):
		respondError(c, http.StatusBadRequest, "UNKNOWN_DECISION", err)
	case errors.Is(err, knowledge.ErrInvalidDocument):
		respondError(c, http.StatusBadRequest, "INVALID_DOCUMENT", err)
	case errors.Is(err, history.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, embedding.ErrProvider):
		respondError(c, http.StatusBadGateway, "EMBEDDING_UNAVAILABLE", err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "TIMEOUT", err)
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL", err)
	}
}
