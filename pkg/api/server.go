package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentmesh/coordinator/pkg/network"
)

// NewServer builds a Server bound to coordinator, ready to have its
// router mounted by NewRouter.
func NewServer(coordinator *network.NetworkCoordinator) *Server {
	return &Server{
		coordinator: coordinator,
		log:         slog.Default().With("component", "api"),
	}
}

// NewRouter assembles the gin engine exposing the coordinator's control
// surface: agent lifecycle, dependency wiring, validation, self-healing,
// and introspection, plus /healthz and /metrics for operators.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	agents := r.Group("/agents")
	{
		agents.POST("", s.registerAgent)
		agents.GET("/:id", s.getAgent)
		agents.DELETE("/:id", s.removeAgent)
		agents.POST("/:id/dependencies", s.addDependency)
		agents.POST("/:id/transition", s.transition)
		agents.GET("/:id/skills", s.listSkills)
	}

	r.GET("/validate", s.validate)
	r.POST("/self-heal", s.selfHeal)
	r.GET("/stats", s.stats)

	return r
}
