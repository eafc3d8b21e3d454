package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/shortcode/pkg/shortcode/auth"
	"github.com/mikepea/shortcode/pkg/shortcode/cache"
	"github.com/mikepea/shortcode/pkg/shortcode/links"
	"github.com/mikepea/shortcode/pkg/shortcode/logger"
	"github.com/mikepea/shortcode/pkg/shortcode/redirect"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// adminPrefix is the path prefix guarded by the admin token, including
// sub-paths that have no route.
const adminPrefix = "/api/admin"

// timestampLayout is an ISO 8601 UTC timestamp with milliseconds.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Deps are the shared dependencies handed to the route handlers.
type Deps struct {
	DB         *gorm.DB
	Cache      cache.Cache // nil disables the redirect cache
	Logger     logger.Logger
	AdminToken string
	Swagger    bool             // serve the OpenAPI UI under /swagger
	TimeNow    func() time.Time // for testing, defaults to time.Now
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	OK        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.TimeNow == nil {
		d.TimeNow = time.Now
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	// Route on the path as sent; %61 is not the letter a in a short code.
	r.UseRawPath = true
	r.UnescapePathValues = false
	r.Use(logger.RequestLogger(d.Logger), logger.Recovery(d.Logger))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	{
		api.GET("/health", health(d.TimeNow))

		linksHandler := links.NewHandler(d.DB, d.Cache, d.Logger)
		linksHandler.RegisterRoutes(api)

		adminGroup := api.Group("/admin", auth.AdminMiddleware(d.AdminToken))
		linksHandler.RegisterAdminRoutes(adminGroup)
	}

	if d.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Redirect routes (public, must be registered LAST to avoid conflicts)
	redirectHandler := redirect.NewHandler(d.DB, d.Cache, d.Logger)
	redirectHandler.RegisterRoutes(r)

	r.NoRoute(notFound(d.AdminToken))

	return r
}

// health godoc
// @Summary Health check
// @Description Liveness probe with the current server time
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func health(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			OK:        true,
			Timestamp: now().UTC().Format(timestampLayout),
		})
	}
}

// notFound answers every unrouted request. Unknown paths under the admin
// prefix are 401 until the caller presents the admin token.
func notFound(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.EscapedPath(), adminPrefix) &&
			!auth.IsAdminAuthorized(c.GetHeader("Authorization"), adminToken) {
			auth.Unauthorized(c)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	}
}
