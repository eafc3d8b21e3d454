package redirect

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/shortcode/pkg/shortcode/cache"
	"github.com/mikepea/shortcode/pkg/shortcode/logger"
	"github.com/mikepea/shortcode/pkg/shortcode/models"
	"gorm.io/gorm"
)

var codeRegex = regexp.MustCompile(`^\w{4,32}$`)

// Handler handles redirect requests
type Handler struct {
	db    *gorm.DB
	cache cache.Cache
	log   logger.Logger
}

// NewHandler creates a new redirect handler. A nil cache disables caching.
func NewHandler(db *gorm.DB, c cache.Cache, log logger.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{db: db, cache: c, log: log}
}

// ValidCode reports whether s has the shape of a short code.
func ValidCode(s string) bool {
	return codeRegex.MatchString(s)
}

// Redirect resolves a short code to its target.
// Only active, non-deleted links redirect; everything else is a plain text 404.
func (h *Handler) Redirect(c *gin.Context) {
	code := c.Param("code")
	if !ValidCode(code) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	ctx := c.Request.Context()

	target, hit, err := h.cache.Get(ctx, code)
	if err != nil {
		h.log.Warn("cache lookup failed, falling back to database",
			logger.String("code", code),
			logger.Error(err))
	}
	if hit {
		found(c, target)
		return
	}

	var link models.Link
	err = h.db.WithContext(ctx).
		Select("target_url", "is_active", "is_deleted").
		Where("code = ?", code).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		h.log.Error("failed to resolve short link",
			logger.String("code", code),
			logger.String("request_id", logger.RequestID(c)),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve short link"})
		return
	}

	if !link.Redirectable() {
		notFound(c)
		return
	}

	if err := h.cache.Set(ctx, code, link.TargetURL); err != nil {
		h.log.Warn("failed to cache short link",
			logger.String("code", code),
			logger.Error(err))
	}

	found(c, link.TargetURL)
}

// found writes a bodyless 302 with the target copied into Location as stored.
func found(c *gin.Context, target string) {
	c.Header("Location", target)
	c.Status(http.StatusFound)
}

func notFound(c *gin.Context) {
	c.String(http.StatusNotFound, "Short link not found")
}

// RegisterRoutes registers the redirect route on the root router.
// It must be registered after every static route.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/:code", h.Redirect)
}
