package storage

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// Seed is the YAML fixture format accepted by LoadSeed.
type Seed struct {
	Ratings []struct {
		ID   int64  `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"ratings"`
	Areas []struct {
		ID                  int64   `yaml:"id"`
		Name                string  `yaml:"name"`
		Contact             *string `yaml:"contact"`
		WaitingTime         *string `yaml:"waiting_time"`
		TemplateNewRequest  *string `yaml:"template_newreq"`
		TemplatePreTraining *string `yaml:"template_pretraining"`
		TemplateWaitingExam *string `yaml:"template_waitingexam"`
	} `yaml:"areas"`
	Users []struct {
		ID               int64   `yaml:"id"`
		Name             string  `yaml:"name"`
		Email            string  `yaml:"email"`
		Division         string  `yaml:"division"`
		Subdivision      *string `yaml:"subdivision"`
		Rating           int     `yaml:"rating"`
		AtcActive        bool    `yaml:"atc_active"`
		PersonalEmail    *string `yaml:"personal_email"`
		WorkEmail        *string `yaml:"work_email"`
		NotifyNewRequest bool    `yaml:"notify_newreq"`
		Permissions      []struct {
			Group  int   `yaml:"group"`
			AreaID int64 `yaml:"area"`
		} `yaml:"permissions"`
	} `yaml:"users"`
}

// SeedCounts reports how many records LoadSeed wrote.
type SeedCounts struct {
	Ratings, Areas, Users int
}

// ParseSeed decodes fixture YAML.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &s, nil
}

// LoadSeed reads a fixture file and upserts its contents into store.
func LoadSeed(ctx context.Context, store TrainingStore, path string) (SeedCounts, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied fixture path
	if err != nil {
		return SeedCounts{}, fmt.Errorf("reading seed file %q: %w", path, err)
	}
	s, err := ParseSeed(data)
	if err != nil {
		return SeedCounts{}, err
	}
	return ApplySeed(ctx, store, s)
}

// ApplySeed upserts ratings, then areas, then users.
func ApplySeed(ctx context.Context, store TrainingStore, s *Seed) (SeedCounts, error) {
	var n SeedCounts
	for _, r := range s.Ratings {
		if err := store.UpsertRating(ctx, training.Rating{ID: r.ID, Name: r.Name}); err != nil {
			return n, err
		}
		n.Ratings++
	}
	for _, a := range s.Areas {
		area := &training.Area{
			ID:                  a.ID,
			Name:                a.Name,
			Contact:             a.Contact,
			WaitingTime:         a.WaitingTime,
			TemplateNewRequest:  a.TemplateNewRequest,
			TemplatePreTraining: a.TemplatePreTraining,
			TemplateWaitingExam: a.TemplateWaitingExam,
		}
		if err := store.UpsertArea(ctx, area); err != nil {
			return n, err
		}
		n.Areas++
	}
	for _, u := range s.Users {
		user := &training.User{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			Division:         u.Division,
			Subdivision:      u.Subdivision,
			Rating:           u.Rating,
			AtcActive:        u.AtcActive,
			PersonalEmail:    u.PersonalEmail,
			WorkEmail:        u.WorkEmail,
			NotifyNewRequest: u.NotifyNewRequest,
		}
		if user.Rating == 0 {
			user.Rating = 1
		}
		for _, p := range u.Permissions {
			user.Permissions = append(user.Permissions, training.Permission{
				Group:  training.Group(p.Group),
				AreaID: p.AreaID,
			})
		}
		if err := store.UpsertUser(ctx, user); err != nil {
			return n, err
		}
		n.Users++
	}
	return n, nil
}
