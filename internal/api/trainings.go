package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shaharia-lab/trainingdesk/internal/training"
)

type trainingResponse struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"user_id"`
	AreaID               int64      `json:"area_id"`
	Area                 string     `json:"area,omitempty"`
	Ratings              string     `json:"ratings"`
	Status               string     `json:"status"`
	PreTrainingCompleted bool       `json:"pre_training_completed"`
	MentorIDs            []int64    `json:"mentor_ids"`
	CreatedAt            time.Time  `json:"created_at"`
	ClosedAt             *time.Time `json:"closed_at,omitempty"`
}

func toTrainingResponse(t *training.Training) trainingResponse {
	resp := trainingResponse{
		ID:                   t.ID,
		UserID:               t.UserID,
		AreaID:               t.AreaID,
		Ratings:              t.InlineRatings(),
		Status:               t.Status.String(),
		PreTrainingCompleted: t.PreTrainingCompleted,
		MentorIDs:            []int64{},
		CreatedAt:            t.CreatedAt,
		ClosedAt:             t.ClosedAt,
	}
	if t.Area != nil {
		resp.Area = t.Area.Name
	}
	for _, m := range t.Mentors {
		resp.MentorIDs = append(resp.MentorIDs, m.ID)
	}
	return resp
}

type eligibilityResponse struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	d, err := s.trainingSvc.CanApply(r.Context(), actorID(r), id)
	if err != nil {
		s.writeServiceError(w, "eligibility check", err)
		return
	}
	writeJSON(w, http.StatusOK, eligibilityResponse{Allowed: d.Allowed(), Code: string(d.Code()), Reason: d.Reason()})
}

type applyRequest struct {
	UserID    int64   `json:"user_id"`
	AreaID    int64   `json:"area_id"`
	RatingIDs []int64 `json:"rating_ids"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	t, err := s.trainingSvc.Apply(r.Context(), applyRequestToService(actorID(r), req))
	if err != nil {
		s.writeServiceError(w, "apply", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTrainingResponse(t))
}

func (s *Server) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	s.withTraining(w, r, "get training", func(actor, id int64) (*training.Training, error) {
		return s.trainingSvc.Get(r.Context(), actor, id)
	})
}

type transitionRequest struct {
	To string `json:"to"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	to, ok := training.ParseStatus(req.To)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status "+req.To)
		return
	}
	s.withTraining(w, r, "transition", func(actor, id int64) (*training.Training, error) {
		return s.trainingSvc.Transition(r.Context(), actor, id, to)
	})
}

func (s *Server) handleTogglePreTraining(w http.ResponseWriter, r *http.Request) {
	s.withTraining(w, r, "toggle pre-training", func(actor, id int64) (*training.Training, error) {
		return s.trainingSvc.TogglePreTraining(r.Context(), actor, id)
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.withTraining(w, r, "close", func(actor, id int64) (*training.Training, error) {
		return s.trainingSvc.Close(r.Context(), actor, id)
	})
}

// withTraining resolves the path id, runs fn for the actor and writes the training.
func (s *Server) withTraining(w http.ResponseWriter, r *http.Request, op string, fn func(actor, id int64) (*training.Training, error)) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid training id")
		return
	}
	t, err := fn(actorID(r), id)
	if err != nil {
		s.writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrainingResponse(t))
}
