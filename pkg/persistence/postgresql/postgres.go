// Package postgresql provides PostgreSQL persistence implementation for automations.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/dukex/automations/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	automationRepo *AutomationRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize components
	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	automationRepo := NewAutomationRepository(database, logger)

	postgres := &Persistence{
		db:             database,
		logger:         logger,
		automationRepo: automationRepo,
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// CreateAutomation inserts a new inactive automation.
func (p *Persistence) CreateAutomation(ctx context.Context, ownerID, name string, steps []models.Step, connections []models.Connection) (*models.Automation, error) {
	automation, err := persistence.NewAutomation(ownerID, name, steps, connections, now())
	if err != nil {
		return nil, persistence.NewOwnerError("CreateAutomation", ownerID, err)
	}

	if err := p.automationRepo.Insert(ctx, automation); err != nil {
		return nil, persistence.NewAutomationError("CreateAutomation", automation.ID, err)
	}

	return automation, nil
}

// UpdateAutomation applies a partial update.
func (p *Persistence) UpdateAutomation(ctx context.Context, id string, update persistence.AutomationUpdate) (*models.Automation, error) {
	return p.automationRepo.Modify(ctx, "UpdateAutomation", id, func(automation *models.Automation) {
		update.Apply(automation, now())
	})
}

// ActivateAutomation marks an automation as active.
func (p *Persistence) ActivateAutomation(ctx context.Context, id string) (*models.Automation, error) {
	return p.automationRepo.Modify(ctx, "ActivateAutomation", id, func(automation *models.Automation) {
		persistence.SetActive(automation, true, now())
	})
}

// DeactivateAutomation marks an automation as inactive.
func (p *Persistence) DeactivateAutomation(ctx context.Context, id string) (*models.Automation, error) {
	return p.automationRepo.Modify(ctx, "DeactivateAutomation", id, func(automation *models.Automation) {
		persistence.SetActive(automation, false, now())
	})
}

// GetAutomationByID returns an automation by its ID.
func (p *Persistence) GetAutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	automation, err := p.automationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistence.NewAutomationError("GetAutomationByID", id, err)
	}

	return automation, nil
}

// ListAutomationsByOwner returns the automations of an owner, oldest first.
func (p *Persistence) ListAutomationsByOwner(ctx context.Context, ownerID string) ([]*models.Automation, error) {
	automations, err := p.automationRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, persistence.NewOwnerError("ListAutomationsByOwner", ownerID, err)
	}

	return automations, nil
}

// DeleteAutomation soft deletes an automation by setting deleted_at timestamp.
func (p *Persistence) DeleteAutomation(ctx context.Context, id string) error {
	if err := p.automationRepo.Delete(ctx, id); err != nil {
		return persistence.NewAutomationError("DeleteAutomation", id, err)
	}

	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
