// Package training holds the records the training workflow reasons about:
// users, areas, ratings and training requests.
package training

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a training request. Non-terminal states
// are ordered; terminal states are negative.
type Status int

const (
	StatusClosed         Status = -2
	StatusCompleted      Status = -1
	StatusInQueue        Status = 0
	StatusPreTraining    Status = 1
	StatusActiveTraining Status = 2
	StatusAwaitingExam   Status = 3
)

// OpenRequestStatuses are the statuses that count as a queued request when
// checking the per-band quota. Active training is handled separately.
var OpenRequestStatuses = []Status{StatusInQueue, StatusPreTraining, StatusAwaitingExam}

// IsTerminal reports whether the training has finished.
func (s Status) IsTerminal() bool {
	return s < StatusInQueue
}

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusCompleted:
		return "completed"
	case StatusInQueue:
		return "in_queue"
	case StatusPreTraining:
		return "pre_training"
	case StatusActiveTraining:
		return "active_training"
	case StatusAwaitingExam:
		return "awaiting_exam"
	}
	return "unknown"
}

// ParseStatus converts the name produced by Status.String back into a Status.
func ParseStatus(name string) (Status, bool) {
	for _, s := range []Status{
		StatusClosed, StatusCompleted, StatusInQueue,
		StatusPreTraining, StatusActiveTraining, StatusAwaitingExam,
	} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Training is a single training request.
type Training struct {
	ID                   int64
	UserID               int64
	User                 *User
	AreaID               int64
	Area                 *Area
	Ratings              []Rating
	Status               Status
	PreTrainingCompleted bool
	CreatedAt            time.Time
	ClosedAt             *time.Time
	Mentors              []User
}

// InlineRatings joins the rating names for use in running text, e.g. "S2 + S3".
func (t *Training) InlineRatings() string {
	names := make([]string, 0, len(t.Ratings))
	for _, r := range t.Ratings {
		names = append(names, r.Name)
	}
	return strings.Join(names, " + ")
}

// HasMentor reports whether userID is assigned as a mentor.
func (t *Training) HasMentor(userID int64) bool {
	for _, m := range t.Mentors {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// Area is a training region.
type Area struct {
	ID                  int64
	Name                string
	Contact             *string
	WaitingTime         *string
	TemplateNewRequest  *string
	TemplatePreTraining *string
	TemplateWaitingExam *string
}

// ContactEmail returns the area's contact address, or "" when none is set.
func (a *Area) ContactEmail() string {
	if a == nil || a.Contact == nil {
		return ""
	}
	return *a.Contact
}
