// Package api exposes the training and notification services as a JSON API.
// The acting user is taken from the X-Actor-ID header, which the fronting
// gateway sets after authenticating the caller.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/trainingdesk/internal/service"
)

// ActorHeader carries the id of the user performing the request.
const ActorHeader = "X-Actor-ID"

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	trainingSvc     service.TrainingService
	notificationSvc service.NotificationService
	settingsSvc     service.SettingsService
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(
	trainingSvc service.TrainingService,
	notificationSvc service.NotificationService,
	settingsSvc service.SettingsService,
	logger *slog.Logger,
) *Server {
	return &Server{
		trainingSvc:     trainingSvc,
		notificationSvc: notificationSvc,
		settingsSvc:     settingsSvc,
		logger:          logger,
	}
}

// Mount registers all API routes under the given router. Every route
// requires the X-Actor-ID header.
func (s *Server) Mount(r chi.Router) {
	r.Use(requireActor)

	// Eligibility and member notifications
	r.Get("/users/{id}/eligibility", s.handleEligibility)
	r.Get("/users/{id}/notifications", s.handleListUserNotifications)

	// Training requests
	r.Post("/trainings", s.handleApply)
	r.Get("/trainings/{id}", s.handleGetTraining)
	r.Post("/trainings/{id}/transition", s.handleTransition)
	r.Post("/trainings/{id}/toggle-pretraining", s.handleTogglePreTraining)
	r.Post("/trainings/{id}/close", s.handleClose)
	r.Get("/trainings/{id}/notifications/{event}", s.handlePreviewNotification)

	// Outbox
	r.Get("/notifications/log", s.handleListNotificationLog)
	r.Post("/notifications/retry", s.handleRetryNotifications)

	// Runtime settings
	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handleUpdateSettings)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the service's typed errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	var (
		notFound   *service.NotFoundError
		validation *service.ValidationError
		forbidden  *service.ForbiddenError
		conflict   *service.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &forbidden):
		body := map[string]string{"error": err.Error()}
		if forbidden.Code != "" {
			body["code"] = forbidden.Code
		}
		writeJSON(w, http.StatusForbidden, body)
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

type actorKey struct{}

// requireActor rejects requests without a valid X-Actor-ID and stores the
// id in the request context.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(ActorHeader), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "missing or invalid "+ActorHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, id)))
	})
}

func actorID(r *http.Request) int64 {
	id, _ := r.Context().Value(actorKey{}).(int64)
	return id
}

func queryLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return def
}
