package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/models"
	"ticket-triage/internal/tickets"
)

const maxBodyBytes = 1 << 20

func (h *handler) listTickets(w http.ResponseWriter, r *http.Request) {
	all, err := h.cfg.Tickets.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if all == nil {
		all = []models.Ticket{}
	}
	writeJSON(w, http.StatusOK, all)
}

// createTicket checks the raw body for required keys before decoding, so a missing field is
// reported the same way whether it is absent or blank.
func (h *handler) createTicket(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		h.fail(w, r, apperrors.NewValidationFailedError("No ticket data provided"))
		return
	}

	if err := tickets.ValidateCreate(body); err != nil {
		h.fail(w, r, err)
		return
	}
	var req models.CreateTicketRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, r, apperrors.NewValidationFailedError("Invalid JSON body: "+err.Error()))
		return
	}

	t, err := h.cfg.Tickets.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) getTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.cfg.Tickets.Get(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) ticketHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.cfg.Tickets.History(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *handler) ticketStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cfg.Tickets.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) ticketAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ticketID")
	if h.cfg.Analyses == nil {
		h.fail(w, r, apperrors.NewAnalysisNotFoundError(id))
		return
	}

	raw, err := h.cfg.Analyses.Load(r.Context(), id)
	if errors.Is(err, tickets.ErrNotFound) {
		h.fail(w, r, apperrors.NewAnalysisNotFoundError(id))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// listArticles searches when q is given and lists every article otherwise.
func (h *handler) listArticles(w http.ResponseWriter, r *http.Request) {
	var (
		articles []models.KnowledgeArticle
		err      error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		articles, err = h.cfg.Knowledge.Search(r.Context(), q)
	} else {
		articles, err = h.cfg.Knowledge.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if articles == nil {
		articles = []models.KnowledgeArticle{}
	}
	writeJSON(w, http.StatusOK, articles)
}

func (h *handler) getArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.cfg.Knowledge.Get(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.Normalize(err)
	if apperrors.HTTPStatus(stdErr.Code) >= http.StatusInternalServerError {
		h.log(r.Context()).Error("request error", map[string]interface{}{
			"path":    r.URL.Path,
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
		})
	}
	apperrors.WriteHTTPError(w, stdErr)
}
