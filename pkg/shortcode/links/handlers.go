package links

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/shortcode/pkg/shortcode/cache"
	"github.com/mikepea/shortcode/pkg/shortcode/logger"
	"github.com/mikepea/shortcode/pkg/shortcode/models"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize is used when pageSize is missing or not a number
	DefaultPageSize = 20
	// MaxPageSize caps pageSize
	MaxPageSize = 100
	// maxCodeAttempts bounds regeneration after a code collision
	maxCodeAttempts = 3
)

var idRegex = regexp.MustCompile(`^\d+$`)

// Handler handles link creation and the admin link API
type Handler struct {
	db      *gorm.DB
	cache   cache.Cache
	log     logger.Logger
	newCode func() (string, error)
}

// NewHandler creates a new links handler
func NewHandler(db *gorm.DB, c cache.Cache, log logger.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{db: db, cache: c, log: log, newCode: newCode}
}

// CreateLinkRequest documents the create body
type CreateLinkRequest struct {
	URL  *string `json:"url"`
	Note *string `json:"note"`
}

// UpdateLinkRequest documents the PATCH body; absent fields are left unchanged
type UpdateLinkRequest struct {
	TargetURL *string `json:"target_url"`
	Note      *string `json:"note"`
	IsActive  *bool   `json:"is_active"`
}

// CreateLinkResponse is returned after a short link is stored
type CreateLinkResponse struct {
	Code string `json:"code"`
}

// ListLinksResponse is one page of non-deleted links
type ListLinksResponse struct {
	Data     []models.Link `json:"data"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int64         `json:"total"`
}

// Create stores a new short link with a generated code
// @Summary Create a short link
// @Description Generate a 7 character code for an http/https URL. New links start inactive.
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Target URL and optional note"
// @Success 200 {object} CreateLinkResponse
// @Failure 400 {object} map[string]string "Invalid JSON or URL"
// @Failure 500 {object} map[string]string "Store failure"
// @Router /create [post]
func (h *Handler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	// Any well-formed JSON is accepted here; a non-object or a non-string url
	// simply fails URL validation below.
	var fields map[string]json.RawMessage
	_ = json.Unmarshal(body, &fields)

	var targetURL string
	if raw, ok := fields["url"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			targetURL = strings.TrimSpace(s)
		}
	}
	if targetURL == "" || !ValidTargetURL(targetURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid http/https URL is required"})
		return
	}

	var note *string
	if raw, ok := fields["note"]; ok {
		var s *string
		if json.Unmarshal(raw, &s) == nil && s != nil {
			trimmed := strings.TrimSpace(*s)
			note = &trimmed
		}
	}

	code, err := h.insertWithFreshCode(c, targetURL, note)
	if err != nil {
		h.log.Error("failed to store short link",
			logger.String("request_id", logger.RequestID(c)),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to store short link",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, CreateLinkResponse{Code: code})
}

// insertWithFreshCode inserts the link, drawing a new code when the previous one
// was already taken.
func (h *Handler) insertWithFreshCode(c *gin.Context, targetURL string, note *string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := h.newCode()
		if err != nil {
			return "", err
		}

		link := models.Link{Code: code, TargetURL: targetURL, Note: note}
		err = h.db.WithContext(c.Request.Context()).Create(&link).Error
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", err
		}

		lastErr = err
		h.log.Warn("short code collision, regenerating",
			logger.String("code", code),
			logger.Int("attempt", attempt))
	}
	return "", lastErr
}

// parsePageParam returns def when raw is missing, not an integer, or zero.
func parsePageParam(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return def
	}
	return n
}

// List returns a page of links that are not soft-deleted, newest first
// @Summary List links
// @Description Page through non-deleted links ordered by creation time, newest first
// @Tags admin
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {object} ListLinksResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /admin/links [get]
func (h *Handler) List(c *gin.Context) {
	page := max(1, parsePageParam(c.Query("page"), 1))
	pageSize := min(MaxPageSize, max(1, parsePageParam(c.Query("pageSize"), DefaultPageSize)))
	offset := (page - 1) * pageSize

	db := h.db.WithContext(c.Request.Context())

	links := []models.Link{}
	if err := db.Where("is_deleted = ?", false).
		Order("created_at DESC").Order("id DESC").
		Limit(pageSize).Offset(offset).
		Find(&links).Error; err != nil {
		h.log.Error("failed to list links", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch links"})
		return
	}

	var total int64
	if err := db.Model(&models.Link{}).Where("is_deleted = ?", false).Count(&total).Error; err != nil {
		h.log.Error("failed to count links", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch links"})
		return
	}

	c.JSON(http.StatusOK, ListLinksResponse{
		Data:     links,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// parseID extracts the numeric link id. It writes the 404 itself when the
// segment is not all digits.
func parseID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	if !idRegex.MatchString(raw) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return id, true
}

// buildUpdates turns the PATCH body into column updates. The returned message
// is non-empty when a field is invalid.
func buildUpdates(fields map[string]json.RawMessage) (map[string]interface{}, string) {
	updates := map[string]interface{}{}

	if raw, ok := fields["target_url"]; ok {
		var targetURL string
		if err := json.Unmarshal(raw, &targetURL); err != nil || !ValidTargetURL(targetURL) {
			return nil, "Invalid target_url"
		}
		updates["target_url"] = targetURL
	}

	if raw, ok := fields["note"]; ok {
		var note *string
		if err := json.Unmarshal(raw, &note); err != nil {
			return nil, "Invalid note"
		}
		updates["note"] = note
	}

	if raw, ok := fields["is_active"]; ok {
		// null is accepted and clears the flag
		var isActive *bool
		if err := json.Unmarshal(raw, &isActive); err != nil {
			return nil, "Invalid is_active"
		}
		updates["is_active"] = isActive != nil && *isActive
	}

	return updates, ""
}

// Update changes target_url, note, or is_active on a link that is not deleted
// @Summary Update a link
// @Description Update any subset of target_url, note and is_active. Returns the row as stored, or null when the id does not exist.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Link ID"
// @Param request body UpdateLinkRequest true "Fields to change"
// @Success 200 {object} map[string]interface{} "{data: link or null}"
// @Failure 400 {object} map[string]string "Invalid JSON, invalid field or no fields"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /admin/links/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	var fields map[string]json.RawMessage
	_ = json.Unmarshal(body, &fields)

	updates, invalid := buildUpdates(fields)
	if invalid != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid})
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	var updated *models.Link
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Link{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Updates(updates).Error; err != nil {
			return err
		}

		var link models.Link
		err := tx.Where("id = ?", id).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		updated = &link
		return nil
	})
	if err != nil {
		h.log.Error("failed to update link", logger.Int64("id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update link"})
		return
	}

	if updated != nil {
		h.invalidate(c, updated.Code)
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

// Delete soft-deletes a link. Unknown and already deleted ids succeed too.
// @Summary Delete a link
// @Description Mark a link as deleted. The row is kept and its code stays reserved.
// @Tags admin
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} map[string]bool "{ok: true}"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /admin/links/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())
	result := db.Model(&models.Link{}).Where("id = ?", id).Update("is_deleted", true)
	if result.Error != nil {
		h.log.Error("failed to delete link", logger.Int64("id", id), logger.Error(result.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		return
	}

	if result.RowsAffected > 0 {
		var link models.Link
		if err := db.Select("code").Where("id = ?", id).First(&link).Error; err == nil {
			h.invalidate(c, link.Code)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// invalidate tombstones a cached redirect. Failures are logged; the entry expires on its own.
func (h *Handler) invalidate(c *gin.Context, code string) {
	if err := h.cache.Invalidate(c.Request.Context(), code); err != nil {
		h.log.Warn("failed to invalidate cached link",
			logger.String("code", code),
			logger.Error(err))
	}
}

// RegisterRoutes registers the public create route
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/create", h.Create)
}

// RegisterAdminRoutes registers link management routes on an authorized group
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/links", h.List)
	rg.PATCH("/links/:id", h.Update)
	rg.DELETE("/links/:id", h.Delete)
}
