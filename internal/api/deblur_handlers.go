package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unblurhq/unblur/pkg/deblur"
)

type jobResponse struct {
	RequestID  string    `json:"request_id"`
	SourceURL  string    `json:"source_url"`
	ResultURL  string    `json:"result_url,omitempty"`
	Status     string    `json:"status"`
	CreditCost int64     `json:"credit_cost"`
	CreatedAt  time.Time `json:"created_at"`
}

func toJobResponse(j *deblur.Job) jobResponse {
	return jobResponse{
		RequestID:  j.RequestID,
		SourceURL:  j.SourceURL,
		ResultURL:  j.ResultURL,
		Status:     string(j.Status),
		CreditCost: j.CreditCost,
		CreatedAt:  j.CreatedAt,
	}
}

func (h *handlers) submitDeblur(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURL string `json:"image_url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}

	job, err := h.deps.Deblur.Submit(r.Context(), identityFromContext(r.Context()), req.ImageURL)
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (h *handlers) deblurResult(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	job, err := h.deps.Deblur.Result(r.Context(), identityFromContext(r.Context()), requestID)
	if err != nil && job == nil {
		writeError(w, r, h.deps.Log, err)
		return
	}
	// A failed job still returns its row; the status field carries the
	// outcome.
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (h *handlers) deblurHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	jobs, err := h.deps.Deblur.History(r.Context(), identityFromContext(r.Context()), limit)
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}
