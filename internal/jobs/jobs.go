package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// Job names.
const (
	ExpireMemberships = "expire-memberships"
	RenewalReminders  = "renewal-reminders"
	PruneWebhooks     = "prune-webhooks"
	SystemHealth      = "system-health"
)

// Deps are what the built-in jobs operate on.
type Deps struct {
	Memberships services.MembershipServiceProvider
	Webhooks    repository.WebhookRepository
	Stats       services.StatsServiceProvider
	Activity    services.ActivityServiceProvider
}

// RegisterDefaults adds the built-in maintenance jobs with the configured specs.
func RegisterDefaults(s *Scheduler, cfg config.JobsConfig, d Deps) error {
	health := NewHealthCheck(d.Stats, d.Activity)
	jobs := []Job{
		{Name: ExpireMemberships, Spec: cfg.ExpireMemberships, Run: expireMemberships(d.Memberships)},
		{Name: RenewalReminders, Spec: cfg.RenewalReminders, Run: renewalReminders(d.Memberships)},
		{Name: PruneWebhooks, Spec: cfg.PruneWebhooks, Run: pruneWebhooks(d.Webhooks, cfg.WebhookRetention)},
		{Name: SystemHealth, Spec: cfg.SystemHealth, Run: health.Run},
	}
	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}

func expireMemberships(ms services.MembershipServiceProvider) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		n, err := ms.ExpireDue(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d memberships expired", n), nil
	}
}

func renewalReminders(ms services.MembershipServiceProvider) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		n, err := ms.SendRenewalReminders(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d reminders sent", n), nil
	}
}

func pruneWebhooks(repo repository.WebhookRepository, retention time.Duration) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		n, err := repo.PruneBefore(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d webhook records pruned", n), nil
	}
}
