package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/google/uuid"
)

const selectAutomation = `
	SELECT
		id
	  , owner_id
	  , name
	  , is_active
	  , steps
	  , connections
	  , created_at
	  , updated_at
	  , activated_at
	FROM automations
`

type scanner interface {
	Scan(dest ...any) error
}

// AutomationRepository handles automation-related database operations.
type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(db *sql.DB, logger *slog.Logger) *AutomationRepository {
	return &AutomationRepository{db: db, logger: logger}
}

// GetByID returns an automation that has not been deleted.
func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, persistence.ErrAutomationNotFound
	}

	row := r.db.QueryRowContext(ctx, selectAutomation+`WHERE id = $1 AND deleted_at IS NULL`, id)

	automation, err := r.scanAutomation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrAutomationNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan automation: %w", err)
	}

	return automation, nil
}

// ListByOwner returns the automations of an owner, oldest first.
func (r *AutomationRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, selectAutomation+`
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		automation, err := r.scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		automations = append(automations, automation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating automations: %w", err)
	}

	return automations, nil
}

// Insert stores a new automation.
func (r *AutomationRepository) Insert(ctx context.Context, automation *models.Automation) error {
	stepsJSON, connectionsJSON, err := marshalGraph(automation)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automations (id, owner_id, name, is_active, steps, connections, created_at, updated_at, activated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		automation.ID,
		automation.OwnerID,
		automation.Name,
		automation.IsActive,
		stepsJSON,
		connectionsJSON,
		automation.CreatedAt,
		automation.UpdatedAt,
		automation.ActivatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert automation: %w", err)
	}

	return nil
}

// Modify loads an automation under a row lock, applies change and stores the result
// in the same transaction.
func (r *AutomationRepository) Modify(ctx context.Context, op, id string, change func(*models.Automation)) (*models.Automation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, persistence.NewAutomationError(op, id, persistence.ErrAutomationNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence.NewAutomationError(op, id, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, selectAutomation+`WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)

	automation, err := r.scanAutomation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewAutomationError(op, id, persistence.ErrAutomationNotFound)
	}

	if err != nil {
		return nil, persistence.NewAutomationError(op, id, fmt.Errorf("failed to scan automation: %w", err))
	}

	change(automation)

	stepsJSON, connectionsJSON, err := marshalGraph(automation)
	if err != nil {
		return nil, persistence.NewAutomationError(op, id, err)
	}

	query := `
		UPDATE automations SET
			name = $2,
			is_active = $3,
			steps = $4,
			connections = $5,
			updated_at = $6,
			activated_at = $7
		WHERE id = $1
	`

	_, err = tx.ExecContext(ctx, query,
		automation.ID,
		automation.Name,
		automation.IsActive,
		stepsJSON,
		connectionsJSON,
		automation.UpdatedAt,
		automation.ActivatedAt,
	)
	if err != nil {
		return nil, persistence.NewAutomationError(op, id, fmt.Errorf("failed to update automation: %w", err))
	}

	if err = tx.Commit(); err != nil {
		return nil, persistence.NewAutomationError(op, id, fmt.Errorf("failed to commit transaction: %w", err))
	}

	return automation, nil
}

// Delete soft deletes an automation by setting deleted_at timestamp.
func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return persistence.ErrAutomationNotFound
	}

	query := `UPDATE automations SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrAutomationNotFound
	}

	return nil
}

func (r *AutomationRepository) scanAutomation(row scanner) (*models.Automation, error) {
	var (
		automation                 models.Automation
		stepsJSON, connectionsJSON []byte
		activatedAt                sql.NullTime
	)

	err := row.Scan(
		&automation.ID,
		&automation.OwnerID,
		&automation.Name,
		&automation.IsActive,
		&stepsJSON,
		&connectionsJSON,
		&automation.CreatedAt,
		&automation.UpdatedAt,
		&activatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stepsJSON, &automation.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	if err := json.Unmarshal(connectionsJSON, &automation.Connections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
	}

	if activatedAt.Valid {
		t := activatedAt.Time.UTC()
		automation.ActivatedAt = &t
	}

	automation.CreatedAt = automation.CreatedAt.UTC()
	automation.UpdatedAt = automation.UpdatedAt.UTC()

	return &automation, nil
}

func marshalGraph(automation *models.Automation) ([]byte, []byte, error) {
	steps := automation.Steps
	if steps == nil {
		steps = []models.Step{}
	}

	connections := automation.Connections
	if connections == nil {
		connections = []models.Connection{}
	}

	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal steps: %w", err)
	}

	connectionsJSON, err := json.Marshal(connections)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal connections: %w", err)
	}

	return stepsJSON, connectionsJSON, nil
}
