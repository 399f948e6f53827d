package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agentmesh/coordinator/pkg/network"
)

// Server is the HTTP control surface over a single coordinator, exposing
// register/remove/add-dependency/transition/validate/self-heal/stats as a
// thin front end matching cmd/coordinatorctl one-to-one.
type Server struct {
	coordinator *network.NetworkCoordinator
	log         *slog.Logger
}

func (s *Server) registerAgent(c *gin.Context) {
	var req registerAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	handle, err := s.coordinator.RegisterAgent(c.Request.Context(), network.AgentType(req.AgentType), req.Task)
	if err != nil {
		mapCoordinatorError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAgentResponse(*handle))
}

func (s *Server) getAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	handle, err := s.coordinator.GetAgent(id)
	if err != nil {
		mapCoordinatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAgentResponse(handle))
}

func (s *Server) removeAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	if err := s.coordinator.RemoveAgent(c.Request.Context(), id); err != nil {
		mapCoordinatorError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addDependency(c *gin.Context) {
	dependent, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	var req addDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dependency, err := uuid.Parse(req.DependencyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dependency_id"})
		return
	}
	if err := s.coordinator.AddDependency(c.Request.Context(), dependency, dependent); err != nil {
		mapCoordinatorError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.coordinator.TransitionState(c.Request.Context(), id, network.AgentState(req.State)); err != nil {
		mapCoordinatorError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) validate(c *gin.Context) {
	result := s.coordinator.ValidateNetwork(c.Request.Context())
	c.JSON(http.StatusOK, toValidationResponse(result))
}

func (s *Server) selfHeal(c *gin.Context) {
	actions, err := s.coordinator.SelfHeal(c.Request.Context())
	if err != nil {
		mapCoordinatorError(c, err)
		return
	}
	out := make([]gin.H, 0, len(actions))
	for _, a := range actions {
		out = append(out, gin.H{"kind": a.Kind, "agent_id": a.AgentID.String()})
	}
	c.JSON(http.StatusOK, gin.H{"actions": out})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, toStatsResponse(s.coordinator.Stats()))
}

func (s *Server) listSkills(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	skills, err := s.coordinator.AvailableSkills(id)
	if err != nil {
		mapCoordinatorError(c, err)
		return
	}
	names := make([]string, len(skills))
	for i, sk := range skills {
		names[i] = sk.Name
	}
	c.JSON(http.StatusOK, gin.H{"skills": names})
}
