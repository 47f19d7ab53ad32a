package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/user/seo-audit-service/internal/browserpool"
	"github.com/user/seo-audit-service/internal/delivery/http/request"
	"github.com/user/seo-audit-service/internal/delivery/http/response"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
	"github.com/user/seo-audit-service/internal/usecase"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// PoolStatser reports browser pool occupancy.
type PoolStatser interface {
	Stats() browserpool.Stats
}

// HealthCheck pings one dependency.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	audits usecase.AuditManager
	pool   PoolStatser
	checks []HealthCheck
	logger *zap.Logger
}

func NewHandler(audits usecase.AuditManager, pool PoolStatser, checks []HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		audits: audits,
		pool:   pool,
		checks: checks,
		logger: logger,
	}
}

func (h *Handler) HandleSubmitAudit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitAuditRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.audits.Submit(r.Context(), req.ToConfig())
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusAccepted, response.SubmitAuditResponse{
			JobID:  job.ID,
			Status: string(job.Status),
		})
	case errors.Is(err, entity.ErrInvalidConfig):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrQueueFull):
		resp := response.ErrorResponse{Error: "Audit queue is full, try again later"}
		if job != nil {
			resp.JobID = job.ID
		}
		w.Header().Set("Retry-After", "30")
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
	default:
		h.logger.Error("failed to submit audit", zap.String("url", req.URL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) HandleGetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeJSONError(w, "Invalid audit id", http.StatusBadRequest)
		return
	}

	job, err := h.audits.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			h.writeJSONError(w, "Audit not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get audit status", zap.String("job_id", id), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.FromJob(job))
}

func (h *Handler) HandlePoolStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.pool.Stats())
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			status[c.Name] = "unhealthy"
			healthy = false
			h.logger.Error("health check failed", zap.String("dependency", c.Name), zap.Error(err))
			continue
		}
		status[c.Name] = "healthy"
	}

	if !healthy {
		status["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
