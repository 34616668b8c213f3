// Package file provides file-based persistence implementation for automations.
package file

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root           string
	automationRepo *AutomationRepository
	now            func() time.Time
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		automationRepo: NewAutomationRepository(cleanRoot),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) CreateAutomation(ctx context.Context, ownerID, name string, steps []models.Step, connections []models.Connection) (*models.Automation, error) {
	automation, err := persistence.NewAutomation(ownerID, name, steps, connections, fp.now())
	if err != nil {
		return nil, persistence.NewOwnerError("CreateAutomation", ownerID, err)
	}

	if err := fp.automationRepo.Create(ctx, automation); err != nil {
		return nil, err
	}

	return automation, nil
}

func (fp *Persistence) UpdateAutomation(ctx context.Context, id string, update persistence.AutomationUpdate) (*models.Automation, error) {
	return fp.automationRepo.Modify(ctx, "UpdateAutomation", id, func(automation *models.Automation) {
		update.Apply(automation, fp.now())
	})
}

func (fp *Persistence) ActivateAutomation(ctx context.Context, id string) (*models.Automation, error) {
	return fp.automationRepo.Modify(ctx, "ActivateAutomation", id, func(automation *models.Automation) {
		persistence.SetActive(automation, true, fp.now())
	})
}

func (fp *Persistence) DeactivateAutomation(ctx context.Context, id string) (*models.Automation, error) {
	return fp.automationRepo.Modify(ctx, "DeactivateAutomation", id, func(automation *models.Automation) {
		persistence.SetActive(automation, false, fp.now())
	})
}

func (fp *Persistence) GetAutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	return fp.automationRepo.GetByID(ctx, id)
}

func (fp *Persistence) ListAutomationsByOwner(ctx context.Context, ownerID string) ([]*models.Automation, error) {
	return fp.automationRepo.ListByOwner(ctx, ownerID)
}

func (fp *Persistence) DeleteAutomation(ctx context.Context, id string) error {
	return fp.automationRepo.Delete(ctx, id)
}
