package api

import (
	"context"
	"net/http"
	"time"

	"ticket-triage/pkg/registry"
)

const readyTimeout = 3 * time.Second

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "Ticket triage backend API is running",
		"endpoints": []string{
			"/status", "/historical-data", "/conversations", "/process-ticket",
			"/tickets", "/knowledge-base", "/agents",
		},
	})
}

type statusResponse struct {
	Status            string   `json:"status"`
	OllamaConnected   bool     `json:"ollamaConnected"`
	Models            []string `json:"models,omitempty"`
	HistoricalTickets int      `json:"historicalTickets"`
	Conversations     int      `json:"conversations"`
	Message           string   `json:"message,omitempty"`
}

// status probes the model backend on every call. A non-success status is a warning; an
// unreachable backend is an error.
func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		HistoricalTickets: h.cfg.Corpus.HistoricalCount(),
		Conversations:     h.cfg.Corpus.ConversationCount(),
	}
	if h.cfg.Status == nil {
		resp.Status = "error"
		resp.Message = "LLM status checker not configured"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	st := h.cfg.Status.Check(r.Context())
	switch {
	case st.Connected:
		resp.Status = "ok"
		resp.OllamaConnected = true
		resp.Models = st.Models
		writeJSON(w, http.StatusOK, resp)
	case st.StatusCode != 0:
		resp.Status = "warning"
		resp.Message = st.Error
		writeJSON(w, http.StatusOK, resp)
	default:
		resp.Status = "error"
		resp.Message = st.Error
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.cfg.Readiness))
	ready := true
	for _, c := range h.cfg.Readiness {
		if err := c.Pinger.Ping(ctx); err != nil {
			checks[c.Name] = err.Error()
			ready = false
			continue
		}
		checks[c.Name] = "ok"
	}

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "checks": checks})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ready", "checks": checks})
}

func (h *handler) historicalData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Corpus.Records())
}

func (h *handler) conversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Corpus.ConversationMap())
}

func (h *handler) agents(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Registry == nil {
		writeJSON(w, http.StatusOK, registry.AgentRegistry{Agents: []registry.Agent{}})
		return
	}
	writeJSON(w, http.StatusOK, h.cfg.Registry)
}

type agentStatus struct {
	TaskType    string `json:"taskType"`
	DisplayName string `json:"displayName"`
	LLMBacked   bool   `json:"llmBacked"`
	Enabled     bool   `json:"enabled"`
	Available   bool   `json:"available"`
}

// agentsStatus joins the registry with worker settings and the last LLM probe. It does not
// probe the backend itself.
func (h *handler) agentsStatus(w http.ResponseWriter, r *http.Request) {
	var llmUp bool
	if h.cfg.Status != nil {
		llmUp = h.cfg.Status.Snapshot().Connected
	}

	out := []agentStatus{}
	if h.cfg.Registry != nil {
		for _, a := range h.cfg.Registry.Agents {
			enabled := true
			if h.cfg.WorkerEnabled != nil {
				enabled = h.cfg.WorkerEnabled(a.TaskType)
			}
			out = append(out, agentStatus{
				TaskType:    a.TaskType,
				DisplayName: a.DisplayName,
				LLMBacked:   a.LLMBacked,
				Enabled:     enabled,
				Available:   !a.LLMBacked || llmUp,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"llmConnected": llmUp, "agents": out})
}
