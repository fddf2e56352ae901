package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/models"
	"ticket-triage/internal/workers/triage/agent"
	processticket "ticket-triage/internal/workers/triage/process-ticket"
)

const sideEffectTimeout = 5 * time.Second

// processRequest accepts the context under either key. model is accepted and ignored; the
// configured model is always used.
type processRequest struct {
	Ticket                 *models.Ticket `json:"ticket"`
	HistoricalContext      *string        `json:"historicalContext"`
	HistoricalContextSnake *string        `json:"historical_context"`
	Model                  string         `json:"model"`
}

func (p processRequest) historicalContext() string {
	if p.HistoricalContext != nil {
		return *p.HistoricalContext
	}
	if p.HistoricalContextSnake != nil {
		return *p.HistoricalContextSnake
	}
	return ""
}

func (h *handler) processTicket(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		h.fail(w, r, apperrors.NewValidationFailedError("No ticket data provided"))
		return
	}

	var req processRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, r, apperrors.NewValidationFailedError("Invalid JSON body: "+err.Error()))
		return
	}
	if req.Ticket == nil {
		h.fail(w, r, apperrors.NewValidationFailedError("No ticket data provided"))
		return
	}

	result := h.cfg.Pipeline.Execute(r.Context(), &agent.Input{
		Ticket:            *req.Ticket,
		HistoricalContext: req.historicalContext(),
	})

	if result.Failed() {
		h.log(r.Context()).Error("ticket processing fell back", map[string]interface{}{
			"ticketId": req.Ticket.ID,
			"error":    result.Error,
		})
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	h.persist(r.Context(), req.Ticket.ID, result)
	writeJSON(w, http.StatusOK, result)
}

// persist caches the result and publishes the analyzed event. Failures are logged only.
func (h *handler) persist(ctx context.Context, ticketID string, result *processticket.AggregateResult) {
	if ticketID == "" {
		return
	}
	log := h.log(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if h.cfg.Analyses != nil {
		if err := h.cfg.Analyses.Save(ctx, ticketID, result); err != nil {
			log.Warn("failed to store analysis", map[string]interface{}{
				"ticketId": ticketID,
				"error":    err.Error(),
			})
		}
	}
	if h.cfg.Events != nil {
		if err := h.cfg.Events.PublishAnalysis(ctx, ticketID, processticket.OutcomeCompleted, result); err != nil {
			log.Warn("failed to publish analysis event", map[string]interface{}{
				"ticketId": ticketID,
				"error":    err.Error(),
			})
		}
	}
}
