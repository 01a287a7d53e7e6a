package chserver

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nodewatch/nodewatch/server/monitoring"
	"github.com/nodewatch/nodewatch/share/models"
	"github.com/nodewatch/nodewatch/share/query"
)

var paginationConfig = &query.PaginationConfig{
	MaxLimit:     500,
	DefaultLimit: 100,
}

// handleListAgents handles GET /api/v1/agents
func (al *APIListener) handleListAgents(w http.ResponseWriter, req *http.Request) {
	agents, err := al.monitoringService.ListAgents(req.Context())
	if err != nil {
		al.jsonError(w, err)
		return
	}
	al.writeJSONResponse(w, http.StatusOK, agents)
}

// handleListAgentMetrics handles GET /api/v1/agents/{agent_id}/metrics
func (al *APIListener) handleListAgentMetrics(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	agentID := vars[routeParamAgentID]

	listOptions := query.NewListOptions(req, monitoring.MetricsSortDefault)
	if err := query.ValidateListOptions(listOptions, monitoring.MetricsSortFields, monitoring.MetricsFilterFields, paginationConfig); err != nil {
		al.jsonError(w, err)
		return
	}

	payload, err := al.monitoringService.ListAgentMetrics(req.Context(), agentID, listOptions)
	if err != nil {
		al.jsonError(w, err)
		return
	}
	al.writeJSONResponse(w, http.StatusOK, payload)
}

// handleGetAgentLatest handles GET /api/v1/agents/{agent_id}/metrics/latest
func (al *APIListener) handleGetAgentLatest(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	agentID := vars[routeParamAgentID]

	if cached, found := al.latestCache.Get(agentID); found {
		al.writeJSONResponse(w, http.StatusOK, cached.(*models.Measurement))
		return
	}

	latest, err := al.monitoringService.GetAgentLatest(req.Context(), agentID)
	if err != nil {
		if err == sql.ErrNoRows {
			al.jsonErrorResponse(w, http.StatusNotFound, fmt.Errorf("no metrics for agent %q", agentID))
			return
		}
		al.jsonError(w, err)
		return
	}

	al.latestCache.SetDefault(agentID, latest)
	al.writeJSONResponse(w, http.StatusOK, latest)
}
