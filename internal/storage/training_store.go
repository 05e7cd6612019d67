package storage

import (
	"context"
	"errors"

	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is wrapped by writes rejected by a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// NewTraining is the input for creating a training request.
type NewTraining struct {
	UserID    int64
	AreaID    int64
	RatingIDs []int64
	Status    training.Status
}

// TrainingStore is the read/write persistence for the training workflow.
type TrainingStore interface {
	training.Repository

	// UpsertUser inserts or replaces a user together with its permissions.
	UpsertUser(ctx context.Context, u *training.User) error
	// UpsertArea inserts or replaces an area.
	UpsertArea(ctx context.Context, a *training.Area) error
	// UpsertRating inserts or replaces a rating.
	UpsertRating(ctx context.Context, r training.Rating) error
	// CreateTraining inserts a training with its ratings and returns its id.
	CreateTraining(ctx context.Context, in NewTraining) (int64, error)
	// UpdateStatus sets a training's status. Terminal statuses stamp closed_at.
	UpdateStatus(ctx context.Context, id int64, status training.Status) error
	// SetPreTrainingCompleted sets the pre-training completed flag.
	SetPreTrainingCompleted(ctx context.Context, id int64, done bool) error
	// AssignMentor adds a mentor to a training.
	AssignMentor(ctx context.Context, trainingID, userID int64) error
}
