package notification

import (
	"context"
	"fmt"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// Record is the payload stored on the database channel.
type Record struct {
	TrainingID int64 `json:"training_id"`
}

// Notification is a composed lifecycle notification ready for delivery.
type Notification struct {
	Event string
	// UserID is the member the database record belongs to.
	UserID   int64
	Channels []Channel
	Mail     Message
	Record   Record
}

// Composer builds notifications from training records. It only reads.
type Composer struct {
	repo     training.Repository
	division config.Division
}

// NewComposer creates a Composer.
func NewComposer(repo training.Repository, division config.Division) *Composer {
	return &Composer{repo: repo, division: division}
}

// Compose builds the notification for event. The training's area is
// resolved through the repository; a missing area is an error.
func (c *Composer) Compose(ctx context.Context, event string, t *training.Training) (*Notification, error) {
	area, err := c.repo.FindArea(ctx, t.AreaID)
	if err != nil {
		return nil, fmt.Errorf("resolving area of training %d: %w", t.ID, err)
	}
	owner := t.User
	if owner == nil {
		if owner, err = c.repo.FindUser(ctx, t.UserID); err != nil {
			return nil, fmt.Errorf("resolving owner of training %d: %w", t.ID, err)
		}
	}

	msg := Message{
		Event:      event,
		TrainingID: t.ID,
		To:         Recipient{Address: owner.PersonalNotificationEmail(), Name: owner.Name},
		Contact:    area.ContactEmail(),
	}

	var areaTemplate *string
	switch event {
	case training.EventCreated:
		msg.Subject = "New Training Request Confirmation"
		msg.Lines = c.createdLines(t, area)
		areaTemplate = area.TemplateNewRequest
		if msg.Bcc, err = c.newRequestBcc(ctx, area); err != nil {
			return nil, err
		}
	case training.EventPreTraining:
		msg.Subject = "Training Assigned"
		msg.Lines = c.preTrainingLines(t, area)
		areaTemplate = area.TemplatePreTraining
	case training.EventAwaitingExam:
		msg.Subject = "Training Ready for Examination"
		msg.Lines = c.awaitingExamLines(t, area)
		areaTemplate = area.TemplateWaitingExam
	default:
		return nil, fmt.Errorf("no notification defined for event %q", event)
	}

	if areaTemplate != nil && *areaTemplate != "" {
		msg.Lines = append(msg.Lines, *areaTemplate)
	}

	return &Notification{
		Event:    event,
		UserID:   owner.ID,
		Channels: []Channel{ChannelMail, ChannelDatabase},
		Mail:     msg,
		Record:   Record{TrainingID: t.ID},
	}, nil
}

func (c *Composer) signature() string {
	return c.division.OwnerNameShort + " Training Department"
}

func (c *Composer) createdLines(t *training.Training, area *training.Area) []string {
	return []string{
		fmt.Sprintf("We hereby confirm that we have received your training request for %s within the %s.",
			t.InlineRatings(), area.Name),
		"While we are unable to provide an exact timeframe, please note that most training requests are typically processed within approximately three months.",
		"During this waiting period, we kindly ask that you remain active by controlling regularly and completing a minimum of 5 hours every 30 days to maintain your eligibility for training.",
		"Please note that if you become inactive, your training request will be removed. You are welcome to reapply once you are available to control again.",
		"Happy controlling and see you online!\n" + c.signature(),
	}
}

func (c *Composer) preTrainingLines(t *training.Training, area *training.Area) []string {
	return []string{
		fmt.Sprintf("We would like to inform you that your training request for %s in %s has now been assigned to pre-training.",
			t.InlineRatings(), area.Name),
		"Please proceed with completing the required pre-training materials and inform your mentor once you have finished and are ready to begin your training sessions.",
		"We would also like to remind you that throughout your training, you are expected to remain active by completing a minimum of 5 hours every 30 days in order to maintain your eligibility for training.",
		"Your mentor will be supporting you on a voluntary basis during your training. We therefore kindly ask that you are punctual and arrive well prepared for each session to make the most of the time available.",
		"Best of luck with your training,\n" + c.signature(),
	}
}

func (c *Composer) awaitingExamLines(t *training.Training, area *training.Area) []string {
	scheduling := "Your mentor will contact you soon to schedule your examination."
	if c.division.ExamScheduling == config.ExamByExaminer {
		scheduling = fmt.Sprintf("An examiner from %s will contact you soon to schedule your examination. Your mentor remains available should you need further preparation.",
			c.division.OwnerNameShort)
	}
	return []string{
		fmt.Sprintf("Congratulations! Your training for %s in %s has progressed to the examination stage.",
			t.InlineRatings(), area.Name),
		scheduling,
		"Please ensure you are well prepared and have reviewed all the necessary materials.",
		"Good luck with your upcoming exam!",
	}
}

// newRequestBcc returns the work addresses of staff who asked to hear about
// new requests and moderate this area.
func (c *Composer) newRequestBcc(ctx context.Context, area *training.Area) ([]string, error) {
	staff, err := c.repo.ListUsersWithGroup(ctx, training.GroupModerator)
	if err != nil {
		return nil, fmt.Errorf("listing moderators: %w", err)
	}
	var bcc []string
	for _, u := range staff {
		if !u.NotifyNewRequest || !training.IsModeratorOrAbove(u, area) {
			continue
		}
		bcc = append(bcc, u.WorkNotificationEmail())
	}
	return bcc, nil
}
