package notification_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/notification"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

func strPtr(s string) *string { return &s }

// --- stub repository ---

type stubRepo struct {
	areas     map[int64]*training.Area
	users     map[int64]*training.User
	trainings map[int64]*training.Training
	staff     []*training.User
}

var errMissing = errors.New("missing")

func (r *stubRepo) FindArea(_ context.Context, id int64) (*training.Area, error) {
	if a, ok := r.areas[id]; ok {
		return a, nil
	}
	return nil, errMissing
}

func (r *stubRepo) FindUser(_ context.Context, id int64) (*training.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errMissing
}

func (r *stubRepo) FindTraining(_ context.Context, id int64) (*training.Training, error) {
	if t, ok := r.trainings[id]; ok {
		return t, nil
	}
	return nil, errMissing
}

func (r *stubRepo) ListUserTrainings(context.Context, int64, ...training.Status) ([]*training.Training, error) {
	return nil, nil
}
func (r *stubRepo) HasTrainingInStatus(context.Context, int64, training.Status) (bool, error) {
	return false, nil
}
func (r *stubRepo) HasRecentlyCompletedTraining(context.Context, int64) (bool, error) {
	return false, nil
}
func (r *stubRepo) HasActiveTrainings(context.Context, int64) (bool, error) { return false, nil }
func (r *stubRepo) IsAtcActive(context.Context, int64) (bool, error)        { return true, nil }

func (r *stubRepo) ListUsersWithGroup(context.Context, training.Group) ([]*training.User, error) {
	return r.staff, nil
}

func newStubRepo() *stubRepo {
	member := &training.User{
		ID: 1001, Name: "Ana Silva", Email: "ana@example.org", PersonalEmail: strPtr("ana@home.example"),
	}
	return &stubRepo{
		areas: map[int64]*training.Area{
			1: {
				ID: 1, Name: "Lisbon FIR", Contact: strPtr("training@example.org"),
				WaitingTime:         strPtr("two months"),
				TemplateNewRequest:  strPtr("Read the Lisbon briefing."),
				TemplateWaitingExam: strPtr(""),
			},
			2: {ID: 2, Name: "Santa Maria FIR"},
		},
		users: map[int64]*training.User{member.ID: member},
		trainings: map[int64]*training.Training{
			7: {ID: 7, UserID: 1001, AreaID: 1, Ratings: []training.Rating{{ID: 3, Name: "S2"}, {ID: 9, Name: "LPPT_APP"}}},
			8: {ID: 8, UserID: 1001, AreaID: 2, Ratings: []training.Rating{{ID: 2, Name: "S1"}}},
			9: {ID: 9, UserID: 1001, AreaID: 99},
		},
		staff: []*training.User{
			{ID: 1, Name: "Area Mod", Email: "mod@example.org", WorkEmail: strPtr("mod@division.example"), NotifyNewRequest: true,
				Permissions: []training.Permission{{Group: training.GroupModerator, AreaID: 1}}},
			{ID: 2, Name: "Quiet Mod", Email: "quiet@example.org",
				Permissions: []training.Permission{{Group: training.GroupModerator, AreaID: 1}}},
			{ID: 3, Name: "Other Mod", Email: "other@example.org", NotifyNewRequest: true,
				Permissions: []training.Permission{{Group: training.GroupModerator, AreaID: 2}}},
			{ID: 4, Name: "Admin", Email: "admin@example.org", NotifyNewRequest: true,
				Permissions: []training.Permission{{Group: training.GroupAdministrator, AreaID: 2}}},
		},
	}
}

func division(exam string) config.Division {
	return config.Division{Mode: config.ModeDivision, OwnerCode: "POR", OwnerNameShort: "Portugal vACC", ExamScheduling: exam}
}

func compose(t *testing.T, repo *stubRepo, exam, event string, id int64) *notification.Notification {
	t.Helper()
	n, err := notification.NewComposer(repo, division(exam)).Compose(context.Background(), event, repo.trainings[id])
	require.NoError(t, err)
	return n
}

func TestCompose_Created(t *testing.T) {
	repo := newStubRepo()
	n := compose(t, repo, config.ExamByMentor, training.EventCreated, 7)

	assert.Equal(t, training.EventCreated, n.Event)
	assert.Equal(t, int64(1001), n.UserID)
	assert.ElementsMatch(t, []notification.Channel{notification.ChannelMail, notification.ChannelDatabase}, n.Channels)
	assert.Equal(t, notification.Record{TrainingID: 7}, n.Record)

	m := n.Mail
	assert.Equal(t, "New Training Request Confirmation", m.Subject)
	assert.Equal(t, notification.Recipient{Address: "ana@home.example", Name: "Ana Silva"}, m.To)
	assert.Equal(t, "training@example.org", m.Contact)
	assert.Equal(t, "We hereby confirm that we have received your training request for S2 + LPPT_APP within the Lisbon FIR.", m.Lines[0])
	// The area waiting time does not change the mail text.
	assert.Contains(t, m.Lines[1], "typically processed within approximately three months.")
	assert.True(t, strings.HasSuffix(m.Lines[len(m.Lines)-2], "Portugal vACC Training Department"))
	assert.Equal(t, "Read the Lisbon briefing.", m.Lines[len(m.Lines)-1])

	// Only staff who opted in and moderate area 1 (or administer anywhere).
	assert.Equal(t, []string{"mod@division.example", "admin@example.org"}, m.Bcc)
}

func TestCompose_CreatedWithoutAreaExtras(t *testing.T) {
	repo := newStubRepo()
	n := compose(t, repo, config.ExamByMentor, training.EventCreated, 8)

	m := n.Mail
	assert.Equal(t, "", m.Contact)
	assert.Contains(t, m.Lines[1], "approximately three months")
	assert.Len(t, m.Lines, 5)
	assert.Equal(t, []string{"other@example.org", "admin@example.org"}, m.Bcc)
}

func TestCompose_PreTraining(t *testing.T) {
	repo := newStubRepo()
	n := compose(t, repo, config.ExamByMentor, training.EventPreTraining, 7)

	m := n.Mail
	assert.Equal(t, "Training Assigned", m.Subject)
	assert.Empty(t, m.Bcc)
	assert.Len(t, m.Lines, 5, "no pre-training template on this area")
	assert.Contains(t, m.Lines[0], "S2 + LPPT_APP in Lisbon FIR has now been assigned to pre-training")
}

func TestCompose_AwaitingExamVariants(t *testing.T) {
	repo := newStubRepo()

	mentor := compose(t, repo, config.ExamByMentor, training.EventAwaitingExam, 7).Mail
	assert.Equal(t, "Training Ready for Examination", mentor.Subject)
	assert.Equal(t, "Your mentor will contact you soon to schedule your examination.", mentor.Lines[1])
	assert.Len(t, mentor.Lines, 4, "empty exam template is not appended")

	examiner := compose(t, repo, config.ExamByExaminer, training.EventAwaitingExam, 7).Mail
	assert.Contains(t, examiner.Lines[1], "An examiner from Portugal vACC will contact you soon")
}

func TestCompose_UsesLoadedOwner(t *testing.T) {
	repo := newStubRepo()
	tr := *repo.trainings[8]
	tr.User = &training.User{ID: 1001, Name: "Loaded", Email: "loaded@example.org"}

	n, err := notification.NewComposer(repo, division(config.ExamByMentor)).Compose(context.Background(), training.EventPreTraining, &tr)
	require.NoError(t, err)
	assert.Equal(t, "loaded@example.org", n.Mail.To.Address)
}

func TestCompose_Errors(t *testing.T) {
	repo := newStubRepo()
	c := notification.NewComposer(repo, division(config.ExamByMentor))
	ctx := context.Background()

	_, err := c.Compose(ctx, training.EventCreated, repo.trainings[9])
	assert.ErrorIs(t, err, errMissing)

	_, err = c.Compose(ctx, "training.unknown", repo.trainings[7])
	assert.ErrorContains(t, err, "no notification defined")

	orphan := &training.Training{ID: 10, UserID: 404, AreaID: 1}
	_, err = c.Compose(ctx, training.EventPreTraining, orphan)
	assert.ErrorIs(t, err, errMissing)
}
