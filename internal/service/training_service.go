package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shaharia-lab/trainingdesk/internal/metrics"
	"github.com/shaharia-lab/trainingdesk/internal/policy"
	"github.com/shaharia-lab/trainingdesk/internal/storage"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// ApplyRequest asks for a new training request. ActorID is the member
// submitting it; UserID is the trainee and defaults to ActorID.
type ApplyRequest struct {
	ActorID   int64
	UserID    int64
	AreaID    int64
	RatingIDs []int64
}

// TrainingService defines the business logic for training requests.
type TrainingService interface {
	// CanApply evaluates whether the member may open a new request. The actor
	// must be the member or a moderator.
	CanApply(ctx context.Context, actorID, userID int64) (policy.Decision, error)
	// Apply creates a queued training request and announces it.
	Apply(ctx context.Context, req ApplyRequest) (*training.Training, error)
	// Transition moves a training to another status on behalf of actorID.
	Transition(ctx context.Context, actorID, trainingID int64, to training.Status) (*training.Training, error)
	// TogglePreTraining flips the pre-training completed flag.
	TogglePreTraining(ctx context.Context, actorID, trainingID int64) (*training.Training, error)
	// Close withdraws a queued request on behalf of its owner.
	Close(ctx context.Context, actorID, trainingID int64) (*training.Training, error)
	// Get returns a training the actor may view.
	Get(ctx context.Context, actorID, trainingID int64) (*training.Training, error)
}

type trainingService struct {
	store     storage.TrainingStore
	evaluator *policy.Evaluator
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewTrainingService returns a TrainingService. publisher and m may be nil.
func NewTrainingService(
	store storage.TrainingStore,
	evaluator *policy.Evaluator,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) TrainingService {
	return &trainingService{
		store:     store,
		evaluator: evaluator,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

func (s *trainingService) CanApply(ctx context.Context, actorID, userID int64) (policy.Decision, error) {
	actor, err := s.findUser(ctx, actorID)
	if err != nil {
		return policy.Decision{}, err
	}
	if !policy.ViewMember(actor, userID) {
		return policy.Decision{}, &ForbiddenError{Action: "check eligibility of another member"}
	}
	user := actor
	if userID != actorID {
		if user, err = s.findUser(ctx, userID); err != nil {
			return policy.Decision{}, err
		}
	}
	d, err := s.evaluator.CanApply(ctx, user)
	if err != nil {
		return policy.Decision{}, err
	}
	s.metrics.ObserveDecision(d.Outcome())
	return d, nil
}

func (s *trainingService) Apply(ctx context.Context, req ApplyRequest) (*training.Training, error) {
	if req.UserID == 0 {
		req.UserID = req.ActorID
	}
	if len(req.RatingIDs) == 0 {
		return nil, &ValidationError{Field: "ratings", Message: "at least one rating is required"}
	}

	area, err := s.store.FindArea(ctx, req.AreaID)
	if err != nil {
		return nil, mapNotFound(err, "area", req.AreaID)
	}
	actor, err := s.findUser(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}

	if req.UserID == req.ActorID {
		d, err := s.evaluator.CanApply(ctx, actor)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveDecision(d.Outcome())
		if !d.Allowed() {
			return nil, &ForbiddenError{Action: "apply", Code: string(d.Code()), Reason: d.Reason()}
		}
	} else {
		if !policy.Store(actor, req.UserID, area) {
			return nil, &ForbiddenError{Action: "create training for another member"}
		}
		if _, err := s.findUser(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	id, err := s.store.CreateTraining(ctx, storage.NewTraining{
		UserID:    req.UserID,
		AreaID:    area.ID,
		RatingIDs: req.RatingIDs,
		Status:    training.StatusInQueue,
	})
	if err != nil {
		return nil, fmt.Errorf("creating training: %w", err)
	}

	s.logger.Info("training request created",
		"training_id", id, "user_id", req.UserID, "actor_id", req.ActorID, "area_id", area.ID)
	s.publish(training.EventCreated, id)
	return s.findTraining(ctx, id)
}

func (s *trainingService) Transition(ctx context.Context, actorID, trainingID int64, to training.Status) (*training.Training, error) {
	actor, t, err := s.load(ctx, actorID, trainingID)
	if err != nil {
		return nil, err
	}
	if !policy.CanTransition(actor, t, to) {
		return nil, &ForbiddenError{
			Action: fmt.Sprintf("move training %d from %s to %s", t.ID, t.Status, to),
		}
	}
	if to == training.StatusActiveTraining {
		busy, err := s.store.HasTrainingInStatus(ctx, t.UserID, training.StatusActiveTraining)
		if err != nil {
			return nil, fmt.Errorf("checking active training for user %d: %w", t.UserID, err)
		}
		if busy {
			return nil, &ConflictError{Resource: "active training for user", ID: strconv.FormatInt(t.UserID, 10)}
		}
	}
	return s.applyStatus(ctx, actor, t, to)
}

func (s *trainingService) Close(ctx context.Context, actorID, trainingID int64) (*training.Training, error) {
	actor, t, err := s.load(ctx, actorID, trainingID)
	if err != nil {
		return nil, err
	}
	if !policy.Close(actor, t) {
		return nil, &ForbiddenError{Action: "close training", Reason: "only the owner can close a queued request"}
	}
	return s.applyStatus(ctx, actor, t, training.StatusClosed)
}

func (s *trainingService) TogglePreTraining(ctx context.Context, actorID, trainingID int64) (*training.Training, error) {
	actor, t, err := s.load(ctx, actorID, trainingID)
	if err != nil {
		return nil, err
	}
	if !policy.TogglePreTrainingCompleted(actor, t) {
		return nil, &ForbiddenError{Action: "toggle pre-training completion"}
	}
	completed := !t.PreTrainingCompleted
	if err := s.store.SetPreTrainingCompleted(ctx, t.ID, completed); err != nil {
		return nil, fmt.Errorf("updating training %d: %w", t.ID, err)
	}
	s.logger.Info("pre-training completion toggled",
		"training_id", t.ID, "actor_id", actor.ID, "completed", completed)
	return s.findTraining(ctx, t.ID)
}

func (s *trainingService) Get(ctx context.Context, actorID, trainingID int64) (*training.Training, error) {
	actor, t, err := s.load(ctx, actorID, trainingID)
	if err != nil {
		return nil, err
	}
	if !policy.View(actor, t) {
		return nil, &ForbiddenError{Action: "view training"}
	}
	return t, nil
}

func (s *trainingService) applyStatus(ctx context.Context, actor *training.User, t *training.Training, to training.Status) (*training.Training, error) {
	if err := s.store.UpdateStatus(ctx, t.ID, to); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, &ConflictError{Resource: "active training for user", ID: strconv.FormatInt(t.UserID, 10)}
		}
		return nil, fmt.Errorf("updating training %d: %w", t.ID, err)
	}
	s.metrics.ObserveTransition(to.String())
	s.logger.Info("training status changed",
		"training_id", t.ID, "actor_id", actor.ID, "from", t.Status.String(), "to", to.String())

	if event := training.EventForStatus(to); event != "" {
		s.publish(event, t.ID)
	}
	return s.findTraining(ctx, t.ID)
}

func (s *trainingService) load(ctx context.Context, actorID, trainingID int64) (*training.User, *training.Training, error) {
	actor, err := s.findUser(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.findTraining(ctx, trainingID)
	if err != nil {
		return nil, nil, err
	}
	return actor, t, nil
}

func (s *trainingService) findUser(ctx context.Context, id int64) (*training.User, error) {
	u, err := s.store.FindUser(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "user", id)
	}
	return u, nil
}

func (s *trainingService) findTraining(ctx context.Context, id int64) (*training.Training, error) {
	t, err := s.store.FindTraining(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "training", id)
	}
	return t, nil
}

func (s *trainingService) publish(event string, trainingID int64) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event, map[string]string{
		training.PayloadTrainingID: strconv.FormatInt(trainingID, 10),
	})
}

func mapNotFound(err error, resource string, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: strconv.FormatInt(id, 10)}
	}
	return fmt.Errorf("loading %s %d: %w", resource, id, err)
}
