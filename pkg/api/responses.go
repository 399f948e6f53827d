package api

import (
	"github.com/agentmesh/coordinator/pkg/network"
)

// agentResponse is the JSON shape returned for a single agent.
type agentResponse struct {
	ID           string   `json:"id"`
	Type         string   `json:"agent_type"`
	State        string   `json:"state"`
	Task         string   `json:"task"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

func toAgentResponse(h network.AgentHandle) agentResponse {
	deps := make([]string, 0, len(h.Dependencies))
	for _, id := range h.Dependencies {
		deps = append(deps, id.String())
	}
	dependents := make([]string, 0, len(h.Dependents))
	for _, id := range h.Dependents {
		dependents = append(dependents, id.String())
	}
	return agentResponse{
		ID:           h.Agent.ID.String(),
		Type:         string(h.Agent.Type),
		State:        string(h.Agent.State),
		Task:         h.Agent.Task,
		Dependencies: deps,
		Dependents:   dependents,
	}
}

// validationResponse mirrors network.ValidationResult for the API.
type validationResponse struct {
	Valid  bool                   `json:"valid"`
	Errors []validationErrorEntry `json:"errors,omitempty"`
}

type validationErrorEntry struct {
	Code    string `json:"code"`
	AgentID string `json:"agent_id"`
	Detail  string `json:"detail"`
}

func toValidationResponse(result network.ValidationResult) validationResponse {
	resp := validationResponse{Valid: result.Valid}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, validationErrorEntry{
			Code: string(e.Code), AgentID: e.AgentID.String(), Detail: e.Detail,
		})
	}
	return resp
}

// statsResponse mirrors network.NetworkStats for the API.
type statsResponse struct {
	TotalAgents   int            `json:"total_agents"`
	AgentsByType  map[string]int `json:"agents_by_type"`
	AgentsByState map[string]int `json:"agents_by_state"`
}

func toStatsResponse(stats network.NetworkStats) statsResponse {
	resp := statsResponse{
		TotalAgents:   stats.TotalAgents,
		AgentsByType:  make(map[string]int, len(stats.AgentsByType)),
		AgentsByState: make(map[string]int, len(stats.AgentsByState)),
	}
	for t, n := range stats.AgentsByType {
		resp.AgentsByType[string(t)] = n
	}
	for s, n := range stats.AgentsByState {
		resp.AgentsByState[string(s)] = n
	}
	return resp
}
