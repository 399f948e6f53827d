package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentmesh/coordinator/pkg/network"
)

// mapCoordinatorError translates a network package error into an HTTP
// status code and writes the JSON error body.
func mapCoordinatorError(c *gin.Context, err error) {
	var terr *network.TransitionError
	switch {
	case errors.As(err, &terr):
		c.JSON(http.StatusConflict, gin.H{"error": terr.Error()})
	case errors.Is(err, network.ErrAgentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, network.ErrAgentAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, network.ErrCycleDetected), errors.Is(err, network.ErrSelfDependency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Default().With("component", "api").Error("unhandled coordinator error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
