package client

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"

	"github.com/dayflowhq/dayflow-client/internal/client/handlers"
	"github.com/dayflowhq/dayflow-client/internal/client/middleware"
	"github.com/dayflowhq/dayflow-client/internal/client/sync"
	"github.com/dayflowhq/dayflow-client/internal/version"
)

type RouteConfig struct {
	Auth middleware.TokenAuthConfig
}

func SetupRoutes(coordinator *sync.Coordinator, routeConfig *RouteConfig) http.Handler {
	r := gin.New()

	rateLimitStore := memory.NewStore()
	rateLimiter := limiter.New(rateLimitStore, limiter.Rate{
		Period: 1 * time.Second,
		Limit:  10,
	})

	statusH := handlers.NewStatusHandler(coordinator)
	syncH := handlers.NewSyncHandler(coordinator)

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.Use(middleware.Gzip())
	r.Use(mgin.NewMiddleware(rateLimiter))

	r.GET("/", IndexHandler)

	v1 := r.Group("/v1")
	v1.Use(middleware.TokenAuth(routeConfig.Auth))
	{
		v1.GET("/status", statusH.Status)

		v1Sync := v1.Group("/sync")
		{
			v1Sync.GET("/status", syncH.Status)
			v1Sync.GET("/events", syncH.Events)
			v1Sync.POST("/now", syncH.Now)
			v1Sync.GET("/pending", syncH.Pending)
			v1Sync.POST("/pending/:id/prioritize", syncH.Prioritize)
			v1Sync.DELETE("/pending/:id", syncH.Dismiss)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func IndexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, version.Detailed())
}
