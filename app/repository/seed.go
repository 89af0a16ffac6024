package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/models"
)

// Snapshot is the db.json layout: one array per ledger table.
type Snapshot struct {
	Users            []models.User            `json:"users"`
	Institutions     []models.Institution     `json:"institutions"`
	Plans            []models.PlanTemplate    `json:"plans"`
	Applications     []models.Application     `json:"applications"`
	InstallmentPlans []models.InstallmentPlan `json:"installment_plans"`
	Payments         []models.Payment         `json:"payments"`
}

// LoadSnapshot reads a db.json file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &snap, nil
}

// Seed inserts all snapshot records, parents first. Records that already
// exist are skipped so seeding can run on every start. Plaintext passwords
// are hashed on the way in.
func (r *Repositories) Seed(ctx context.Context, snap *Snapshot) error {
	var inserted, skipped int
	track := func(kind, id string, err error) error {
		switch {
		case err == nil:
			inserted++
			return nil
		case errors.Is(err, ErrDuplicate):
			skipped++
			return nil
		}
		return fmt.Errorf("seed %s %s: %w", kind, id, err)
	}

	for i := range snap.Users {
		u := &snap.Users[i]
		if !isBcryptHash(u.Password) {
			hash, err := models.HashPassword(u.Password)
			if err != nil {
				return err
			}
			u.Password = hash
		}
		u.Email = models.NormalizeEmail(u.Email)
		if err := track("user", u.ID, r.User.Create(ctx, u)); err != nil {
			return err
		}
	}
	for i := range snap.Institutions {
		if err := track("institution", snap.Institutions[i].ID, r.Institution.Create(ctx, &snap.Institutions[i])); err != nil {
			return err
		}
	}
	for i := range snap.Plans {
		if err := track("plan", snap.Plans[i].ID, r.Plan.Create(ctx, &snap.Plans[i])); err != nil {
			return err
		}
	}
	for i := range snap.Applications {
		if err := track("application", snap.Applications[i].ID, r.Application.Create(ctx, &snap.Applications[i])); err != nil {
			return err
		}
	}
	for i := range snap.InstallmentPlans {
		if err := track("installment plan", snap.InstallmentPlans[i].ID, r.InstallmentPlan.Create(ctx, &snap.InstallmentPlans[i])); err != nil {
			return err
		}
	}
	for i := range snap.Payments {
		if err := track("payment", snap.Payments[i].ID, r.Payment.Create(ctx, &snap.Payments[i])); err != nil {
			return err
		}
	}

	log.Infof("[Seed] Inserted %d records, skipped %d existing", inserted, skipped)
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
