package policy

import "github.com/shaharia-lab/trainingdesk/internal/training"

func isOwner(actor *training.User, t *training.Training) bool {
	return actor != nil && actor.ID == t.UserID
}

// View reports whether actor may see the training: its mentors, the owner,
// and moderators of its area.
func View(actor *training.User, t *training.Training) bool {
	if actor == nil {
		return false
	}
	return t.HasMentor(actor.ID) ||
		training.IsModeratorOrAbove(actor, t.Area) ||
		isOwner(actor, t)
}

// Update reports whether actor may change the training.
func Update(actor *training.User, t *training.Training) bool {
	return training.IsModeratorOrAbove(actor, t.Area)
}

// Delete reports whether actor may delete the training.
func Delete(actor *training.User, t *training.Training) bool {
	return training.IsModeratorOrAbove(actor, t.Area)
}

// Edit reports whether actor may edit the training details.
func Edit(actor *training.User, t *training.Training) bool {
	return training.IsModeratorOrAbove(actor, t.Area)
}

// Close reports whether actor may withdraw the request. Only the owner can,
// and only while it is still queued.
func Close(actor *training.User, t *training.Training) bool {
	return isOwner(actor, t) && t.Status == training.StatusInQueue
}

// TogglePreTrainingCompleted reports whether actor may flip the pre-training
// completed flag. The owner may set it once; moderators may set or clear it.
// Either way the training must be in pre-training.
func TogglePreTrainingCompleted(actor *training.User, t *training.Training) bool {
	if t.Status != training.StatusPreTraining {
		return false
	}
	if training.IsModeratorOrAbove(actor, t.Area) {
		return true
	}
	return isOwner(actor, t) && !t.PreTrainingCompleted
}

// Create reports whether actor may open the manual request form.
func Create(actor *training.User) bool {
	return training.IsModeratorOrAbove(actor, nil)
}

// Store reports whether actor may save a manually created request. Members
// may always file for themselves; filing on behalf of someone else
// (ownerID != 0) needs moderator rights in the target area.
func Store(actor *training.User, ownerID int64, area *training.Area) bool {
	if ownerID == 0 {
		return true
	}
	return training.IsModeratorOrAbove(actor, area)
}

// ViewActiveRequests reports whether actor may list open requests.
func ViewActiveRequests(actor *training.User) bool {
	return training.IsModeratorOrAbove(actor, nil)
}

// ViewHistoricRequests reports whether actor may list closed requests.
func ViewHistoricRequests(actor *training.User) bool {
	return training.IsModeratorOrAbove(actor, nil)
}

// CanTransition reports whether actor may move t to status to.
func CanTransition(actor *training.User, t *training.Training, to training.Status) bool {
	from := t.Status
	if from.IsTerminal() {
		return false
	}
	switch to {
	case training.StatusClosed:
		return Close(actor, t)
	case training.StatusCompleted:
		if from != training.StatusAwaitingExam {
			return false
		}
	default:
		if to <= from || to > training.StatusAwaitingExam {
			return false
		}
	}
	return training.IsModeratorOrAbove(actor, t.Area)
}

// ViewMember reports whether actor may see a member's eligibility and
// notifications: the member themselves or any moderator.
func ViewMember(actor *training.User, userID int64) bool {
	if actor == nil {
		return false
	}
	return actor.ID == userID || training.IsModeratorOrAbove(actor, nil)
}

// ManageOutbox reports whether actor may read the mail log and retry
// failed deliveries.
func ManageOutbox(actor *training.User) bool {
	return training.IsModeratorOrAbove(actor, nil)
}

// ViewSettings reports whether actor may read the runtime settings.
func ViewSettings(actor *training.User) bool {
	return training.IsModeratorOrAbove(actor, nil)
}

// EditSettings reports whether actor may change the runtime settings.
// Only administrators can.
func EditSettings(actor *training.User) bool {
	return actor != nil && actor.IsAdmin()
}
