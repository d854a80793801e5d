package api

import (
	"net/http"
)

// HealthHandler handles liveness requests.
type HealthHandler struct {
	provider StatsProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(provider StatsProvider) *HealthHandler {
	return &HealthHandler{provider: provider}
}

type healthResponse struct {
	Status  string `json:"status"`
	Role    any    `json:"role,omitempty"`
	Session any    `json:"session,omitempty"`
}

// HandleHealth handles GET /healthz. It answers 503 until the service has
// started.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	stats := h.provider.GetStats()
	resp := healthResponse{Status: "ok", Role: stats["role"], Session: stats["session"]}
	if started, _ := stats["started"].(bool); !started {
		resp.Status = "starting"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
