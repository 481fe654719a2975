// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lending-notifier/internal/common/errors"
	"lending-notifier/internal/common/logger"
	"lending-notifier/internal/common/observability"
	"lending-notifier/internal/notify"
)

const maxBodySize = 1 << 20 // 1 MiB

const maxFailureListLimit = 100

// FailureLister reads back failed deliveries from the audit trail. Nil when
// no delivery log is configured.
type FailureLister interface {
	RecentFailures(ctx context.Context, limit int) ([]notify.DeliveryRecord, error)
}

// Server exposes the notification intake API. Handlers enqueue and return
// 202: a notification must never fail the business operation that fired it,
// so delivery happens asynchronously on the queue workers.
type Server struct {
	router    chi.Router
	queue     *notify.Queue
	failures  FailureLister
	validator *schemaValidator
	logger    logger.Logger
	obs       *observability.Observability
}

func New(queue *notify.Queue, failures FailureLister, log logger.Logger, obs *observability.Observability) (*Server, error) {
	validator, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		queue:     queue,
		failures:  failures,
		validator: validator,
		logger:    log,
		obs:       obs,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Post("/application", s.handleApplication)
		r.Post("/confirmation", s.handleConfirmation)
		r.Post("/email", s.handleEmail)
		r.Get("/failures", s.handleFailures)
	})

	s.router = r
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request) {
	s.handlePayloadEvent(w, r, notify.KindAdminNotification)
}

func (s *Server) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	s.handlePayloadEvent(w, r, notify.KindCustomerConfirmation)
}

func (s *Server) handlePayloadEvent(w http.ResponseWriter, r *http.Request, kind string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", nil)
		return
	}

	if errs := s.validator.validatePayload(body); errs != nil {
		s.writeError(w, http.StatusBadRequest, "payload validation failed", errs)
		return
	}

	var payload notify.ApplicationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed payload", nil)
		return
	}

	s.enqueue(w, notify.Item{Kind: kind, Payload: &payload})
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", nil)
		return
	}

	if errs := s.validator.validateEmail(body); errs != nil {
		s.writeError(w, http.StatusBadRequest, "payload validation failed", errs)
		return
	}

	var req notify.EmailRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed payload", nil)
		return
	}

	s.enqueue(w, notify.Item{Kind: notify.KindGeneric, Email: &req})
}

// handleFailures lists the latest failed deliveries for operator triage.
func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	if s.failures == nil {
		s.writeError(w, http.StatusNotFound, "delivery log is not configured", nil)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFailureListLimit {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100", nil)
			return
		}
		limit = n
	}

	records, err := s.failures.RecentFailures(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to query delivery failures", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "failed to query delivery failures", nil)
		return
	}
	if records == nil {
		records = []notify.DeliveryRecord{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"failures": records})
}

func (s *Server) enqueue(w http.ResponseWriter, item notify.Item) {
	if err := s.queue.Enqueue(item); err != nil {
		if errors.CodeOf(err) == errors.ErrCodeQueueFull {
			s.writeError(w, http.StatusServiceUnavailable, "notification queue is full", nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to enqueue notification", nil)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// observe records request counts and durations through the otel meter.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		s.obs.RecordRequest(r.Context(), route, ww.Status())
		s.obs.RecordRequestDuration(r.Context(), route, time.Since(start))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, details []ValidationError) {
	resp := map[string]interface{}{"error": message}
	if details != nil {
		resp["details"] = details
	}
	s.writeJSON(w, status, resp)
}
