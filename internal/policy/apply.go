package policy

import (
	"context"
	"fmt"
	"slices"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// ConfigProvider exposes runtime settings.
type ConfigProvider interface {
	GetBool(key string) bool
	GetString(key string) string
}

// Evaluator decides whether a member may open a new training request.
type Evaluator struct {
	repo     training.Repository
	settings ConfigProvider
	division config.Division
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(repo training.Repository, settings ConfigProvider, division config.Division) *Evaluator {
	return &Evaluator{repo: repo, settings: settings, division: division}
}

// CanApply runs the eligibility rules in order and returns the first denial,
// or Allow when every rule passes. Errors are returned only for failed lookups.
func (e *Evaluator) CanApply(ctx context.Context, user *training.User) (Decision, error) {
	name := e.division.OwnerNameShort

	if !e.settings.GetBool(config.KeyTrainingEnabled) {
		return Deny(DenyIntakeDisabled, "We are currently not accepting new training requests"), nil
	}

	if d, denied := e.checkMembership(user); denied {
		return d, nil
	}

	recent, err := e.repo.HasRecentlyCompletedTraining(ctx, user.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("checking recent completions for user %d: %w", user.ID, err)
	}
	if recent {
		return Deny(DenyCooldown, "Please wait 7 days after completed training to request a new training."), nil
	}

	hasOpen, err := e.repo.HasActiveTrainings(ctx, user.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("checking open trainings for user %d: %w", user.ID, err)
	}

	if !hasOpen && user.Rating > 1 {
		active, err := e.repo.IsAtcActive(ctx, user.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("checking ATC activity for user %d: %w", user.ID, err)
		}
		if !active {
			return Deny(DenyInactiveRating, fmt.Sprintf("Your ATC rating is inactive in %s", name)), nil
		}
	}

	if !hasOpen {
		return Allow(), nil
	}

	inTraining, err := e.repo.HasTrainingInStatus(ctx, user.ID, training.StatusActiveTraining)
	if err != nil {
		return Decision{}, fmt.Errorf("checking active training for user %d: %w", user.ID, err)
	}
	if inTraining {
		return Deny(DenyActiveTraining,
			"You already have a training in active training status. Please complete it before applying for another."), nil
	}

	requested, err := e.repo.ListUserTrainings(ctx, user.ID, training.OpenRequestStatuses...)
	if err != nil {
		return Decision{}, fmt.Errorf("listing requested trainings for user %d: %w", user.ID, err)
	}

	bands := make(map[training.Band]bool, 3)
	for _, t := range requested {
		// A request's band is taken from its first rating.
		if len(t.Ratings) == 0 {
			continue
		}
		bands[training.BandOf(t.Ratings[0].ID)] = true
	}
	if bands[training.BandRating] && bands[training.BandTier1] && bands[training.BandTier2] {
		return Deny(DenyBandQuota,
			"You already have a rating, tier 1, and tier 2 training requested. Please complete one before applying for another."), nil
	}

	return Allow(), nil
}

func (e *Evaluator) checkMembership(user *training.User) (Decision, bool) {
	name := e.division.OwnerNameShort

	if e.division.Mode == config.ModeSubdivision {
		allowed := config.SplitList(e.settings.GetString(config.KeyTrainingSubDivisions))
		if len(allowed) == 0 {
			return Decision{}, false
		}
		subdiv := "none"
		if user.Subdivision != nil && *user.Subdivision != "" {
			subdiv = *user.Subdivision
		}
		if user.Subdivision == nil || !slices.Contains(allowed, *user.Subdivision) {
			return Deny(DenyMembership, fmt.Sprintf(
				"You must join %s to apply for training. You currently belong to %s", name, subdiv)), true
		}
		return Decision{}, false
	}

	if user.Division != e.division.OwnerCode {
		return Deny(DenyMembership, fmt.Sprintf(
			"You must join %s division to apply for training. You currently belong to %s", name, user.Division)), true
	}
	return Decision{}, false
}
