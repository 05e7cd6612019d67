package training

import "context"

// Repository is the read side the policy and notification code depend on.
type Repository interface {
	// FindArea returns the area with the given id.
	FindArea(ctx context.Context, id int64) (*Area, error)
	// FindUser returns the user with permissions loaded.
	FindUser(ctx context.Context, id int64) (*User, error)
	// FindTraining returns the training with its user, area, ratings and mentors loaded.
	FindTraining(ctx context.Context, id int64) (*Training, error)
	// ListUserTrainings returns the user's trainings with ratings loaded. When
	// statuses is empty every training is returned.
	ListUserTrainings(ctx context.Context, userID int64, statuses ...Status) ([]*Training, error)
	// HasTrainingInStatus reports whether the user owns a training in status.
	HasTrainingInStatus(ctx context.Context, userID int64, status Status) (bool, error)
	// HasRecentlyCompletedTraining reports whether the user completed a training in the last 7 days.
	HasRecentlyCompletedTraining(ctx context.Context, userID int64) (bool, error)
	// HasActiveTrainings reports whether the user has any non-terminal training.
	HasActiveTrainings(ctx context.Context, userID int64) (bool, error)
	// IsAtcActive reports whether the user is flagged active as a controller.
	IsAtcActive(ctx context.Context, userID int64) (bool, error)
	// ListUsersWithGroup returns users holding maxGroup or a more privileged
	// group in at least one area, permissions loaded.
	ListUsersWithGroup(ctx context.Context, maxGroup Group) ([]*User, error)
}
