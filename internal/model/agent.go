package model

import (
	"encoding/json"
	"time"
)

// AgentType is the kind of agent registered on the orchestrator.
type AgentType string

const (
	AgentTypeA2AServer AgentType = "a2a_server"
	AgentTypeAPI       AgentType = "api"
	AgentTypeLocal     AgentType = "local"
)

// AgentStatus is the registry status of an agent.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusError    AgentStatus = "error"
)

// Agent is an agent registered on the orchestrator.
type Agent struct {
	ID           string
	Name         string
	Description  string
	Type         AgentType
	Endpoint     string
	Capabilities []string
	Status       AgentStatus
	CreatedAt    time.Time
}

// AgentFilter filters agent listings, empty fields don't filter.
type AgentFilter struct {
	Type   AgentType
	Status AgentStatus
}

// AgentStats are the orchestrator agent registry counters.
type AgentStats struct {
	Total    int
	Active   int
	Inactive int
	Error    int
	ByType   map[string]int
}

// AgentHealth is the result of an agent health check.
type AgentHealth struct {
	AgentID string
	// Status is healthy, unhealthy or error.
	Status   string
	Error    string
	Response json.RawMessage
}

// Healthy returns true if the agent answered the health check.
func (a AgentHealth) Healthy() bool { return a.Status == "healthy" }
