package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/trainingdesk/internal/policy"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

var (
	lisbon = &training.Area{ID: 1, Name: "Lisbon"}
	porto  = &training.Area{ID: 2, Name: "Porto"}

	owner     = &training.User{ID: 10}
	stranger  = &training.User{ID: 11}
	mentor    = &training.User{ID: 12, Permissions: []training.Permission{{Group: training.GroupMentor, AreaID: 1}}}
	moderator = &training.User{ID: 13, Permissions: []training.Permission{{Group: training.GroupModerator, AreaID: 1}}}
	otherMod  = &training.User{ID: 14, Permissions: []training.Permission{{Group: training.GroupModerator, AreaID: 2}}}
	admin     = &training.User{ID: 15, Permissions: []training.Permission{{Group: training.GroupAdministrator, AreaID: 2}}}
)

func newTraining(status training.Status) *training.Training {
	return &training.Training{
		ID:      1,
		UserID:  owner.ID,
		AreaID:  lisbon.ID,
		Area:    lisbon,
		Status:  status,
		Mentors: []training.User{*mentor},
	}
}

func TestView(t *testing.T) {
	tr := newTraining(training.StatusActiveTraining)
	assert.True(t, policy.View(owner, tr))
	assert.True(t, policy.View(mentor, tr))
	assert.True(t, policy.View(moderator, tr))
	assert.True(t, policy.View(admin, tr))
	assert.False(t, policy.View(otherMod, tr))
	assert.False(t, policy.View(stranger, tr))
	assert.False(t, policy.View(nil, tr))
}

func TestModeratorOnlyPredicates(t *testing.T) {
	tr := newTraining(training.StatusInQueue)
	for name, fn := range map[string]func(*training.User, *training.Training) bool{
		"update": policy.Update,
		"delete": policy.Delete,
		"edit":   policy.Edit,
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, fn(moderator, tr))
			assert.True(t, fn(admin, tr))
			assert.False(t, fn(otherMod, tr))
			assert.False(t, fn(mentor, tr))
			assert.False(t, fn(owner, tr))
		})
	}
}

func TestGlobalModeratorPredicates(t *testing.T) {
	assert.True(t, policy.Create(otherMod))
	assert.False(t, policy.Create(mentor))
	assert.True(t, policy.ViewActiveRequests(moderator))
	assert.False(t, policy.ViewActiveRequests(owner))
	assert.True(t, policy.ViewHistoricRequests(admin))
	assert.False(t, policy.ViewHistoricRequests(stranger))
}

func TestStore(t *testing.T) {
	assert.True(t, policy.Store(stranger, 0, lisbon))
	assert.True(t, policy.Store(moderator, owner.ID, lisbon))
	assert.False(t, policy.Store(moderator, owner.ID, porto))
	assert.False(t, policy.Store(stranger, owner.ID, lisbon))
}

func TestClose(t *testing.T) {
	assert.True(t, policy.Close(owner, newTraining(training.StatusInQueue)))
	assert.False(t, policy.Close(owner, newTraining(training.StatusPreTraining)))
	assert.False(t, policy.Close(moderator, newTraining(training.StatusInQueue)))
}

func TestTogglePreTrainingCompleted(t *testing.T) {
	pre := newTraining(training.StatusPreTraining)
	assert.True(t, policy.TogglePreTrainingCompleted(owner, pre))
	assert.True(t, policy.TogglePreTrainingCompleted(moderator, pre))
	assert.False(t, policy.TogglePreTrainingCompleted(stranger, pre))
	assert.False(t, policy.TogglePreTrainingCompleted(mentor, pre))

	done := newTraining(training.StatusPreTraining)
	done.PreTrainingCompleted = true
	assert.False(t, policy.TogglePreTrainingCompleted(owner, done), "owner cannot unset")
	assert.True(t, policy.TogglePreTrainingCompleted(moderator, done), "moderator can unset")

	for _, s := range []training.Status{training.StatusInQueue, training.StatusActiveTraining, training.StatusAwaitingExam, training.StatusCompleted} {
		tr := newTraining(s)
		assert.False(t, policy.TogglePreTrainingCompleted(owner, tr), s.String())
		assert.False(t, policy.TogglePreTrainingCompleted(moderator, tr), s.String())
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		actor *training.User
		from  training.Status
		to    training.Status
		want  bool
	}{
		{"moderator to pre-training", moderator, training.StatusInQueue, training.StatusPreTraining, true},
		{"moderator skips ahead", moderator, training.StatusInQueue, training.StatusActiveTraining, true},
		{"admin elsewhere", admin, training.StatusPreTraining, training.StatusAwaitingExam, true},
		{"owner cannot progress", owner, training.StatusInQueue, training.StatusPreTraining, false},
		{"mentor cannot progress", mentor, training.StatusActiveTraining, training.StatusAwaitingExam, false},
		{"other area moderator", otherMod, training.StatusInQueue, training.StatusPreTraining, false},
		{"no going back", moderator, training.StatusActiveTraining, training.StatusPreTraining, false},
		{"no staying", moderator, training.StatusActiveTraining, training.StatusActiveTraining, false},
		{"unknown target", moderator, training.StatusInQueue, training.Status(9), false},
		{"complete after exam", moderator, training.StatusAwaitingExam, training.StatusCompleted, true},
		{"complete before exam", moderator, training.StatusActiveTraining, training.StatusCompleted, false},
		{"owner closes queued", owner, training.StatusInQueue, training.StatusClosed, true},
		{"owner cannot close later", owner, training.StatusPreTraining, training.StatusClosed, false},
		{"moderator cannot close", moderator, training.StatusInQueue, training.StatusClosed, false},
		{"terminal stays", moderator, training.StatusCompleted, training.StatusAwaitingExam, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanTransition(tt.actor, newTraining(tt.from), tt.to))
		})
	}
}

func TestAccountPredicates(t *testing.T) {
	assert.True(t, policy.ViewMember(owner, owner.ID))
	assert.False(t, policy.ViewMember(stranger, owner.ID))
	assert.False(t, policy.ViewMember(mentor, owner.ID))
	assert.True(t, policy.ViewMember(otherMod, owner.ID))
	assert.False(t, policy.ViewMember(nil, owner.ID))

	assert.True(t, policy.ManageOutbox(moderator))
	assert.True(t, policy.ManageOutbox(admin))
	assert.False(t, policy.ManageOutbox(mentor))
	assert.False(t, policy.ManageOutbox(owner))

	assert.True(t, policy.ViewSettings(otherMod))
	assert.False(t, policy.ViewSettings(mentor))
	assert.True(t, policy.EditSettings(admin))
	assert.False(t, policy.EditSettings(moderator))
	assert.False(t, policy.EditSettings(nil))
}
