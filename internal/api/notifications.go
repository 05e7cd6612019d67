package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/trainingdesk/internal/training"
)

var eventByName = map[string]string{
	"created":       training.EventCreated,
	"pre-training":  training.EventPreTraining,
	"awaiting-exam": training.EventAwaitingExam,
}

// handlePreviewNotification renders the notification a training would
// receive for the given event, without sending it.
func (s *Server) handlePreviewNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid training id")
		return
	}
	event, ok := eventByName[chi.URLParam(r, "event")]
	if !ok {
		writeError(w, http.StatusBadRequest, "event must be created, pre-training or awaiting-exam")
		return
	}
	n, err := s.notificationSvc.Preview(r.Context(), actorID(r), event, id)
	if err != nil {
		s.writeServiceError(w, "preview notification", err)
		return
	}
	writeJSON(w, http.StatusOK, n.Mail)
}

// handleListNotificationLog returns recent outbox entries.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListNotificationLog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.notificationSvc.ListLog(r.Context(), actorID(r), queryLimit(r, 50))
	if err != nil {
		s.writeServiceError(w, "list notification log", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleListUserNotifications returns a member's database-channel notifications.
func (s *Server) handleListUserNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	records, err := s.notificationSvc.ListRecords(r.Context(), actorID(r), id, queryLimit(r, 50))
	if err != nil {
		s.writeServiceError(w, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type retryResponse struct {
	Retried int `json:"retried"`
	Sent    int `json:"sent"`
}

// handleRetryNotifications re-sends failed mail once. ?max_attempts=N caps
// the attempts (default 5).
func (s *Server) handleRetryNotifications(w http.ResponseWriter, r *http.Request) {
	maxAttempts := 5
	if v := r.URL.Query().Get("max_attempts"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "max_attempts must be a positive integer")
			return
		}
		maxAttempts = n
	}
	retried, sent, err := s.notificationSvc.RetryFailed(r.Context(), actorID(r), maxAttempts)
	if err != nil {
		s.writeServiceError(w, "retry notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, retryResponse{Retried: retried, Sent: sent})
}
