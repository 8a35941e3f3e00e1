package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/resumes"
	"resume-ranker/internal/shared/health"
	"resume-ranker/internal/shared/metrics"
	"resume-ranker/internal/shared/server/middleware"
	"resume-ranker/internal/shared/server/respond"
)

// Endpoint classes for throttling. Upload and JD endpoints parse or embed
// and cost more than reads.
const (
	ClassDefault = middleware.DefaultClass
	ClassHeavy   = "HEAVY"
)

// RouterDeps holds handlers and settings used to build the router.
type RouterDeps struct {
	Resumes         *resumes.Handler
	Health          *health.Service
	CORSAllowOrigin []string
	Budgets         map[string]middleware.Budget
	Buckets         *middleware.Buckets
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.CORSAllowOrigin),
		middleware.Principal(),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		rep := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !rep.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, rep)
	})

	limited := api.Group("")
	if len(deps.Budgets) > 0 {
		limited.Use(middleware.Throttle(middleware.ThrottleConfig{
			Budgets:  deps.Budgets,
			Classify: func(c *gin.Context) string { return endpointClass(c.Request.Method, c.FullPath()) },
			Buckets:  deps.Buckets,
		}))
	}
	if deps.Resumes != nil {
		deps.Resumes.RegisterRoutes(limited)
	}

	return r
}

func endpointClass(method, path string) string {
	if method != http.MethodPost {
		return ClassDefault
	}
	switch {
	case strings.HasSuffix(path, "/upload"),
		strings.HasSuffix(path, "/missing"),
		strings.HasPrefix(path, "/api/v1/jd/"):
		return ClassHeavy
	}
	return ClassDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
