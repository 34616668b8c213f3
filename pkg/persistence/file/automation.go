package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
)

const automationsDir = "automations"

// AutomationRepository handles automation-related file operations. Each automation
// is stored as one JSON document.
type AutomationRepository struct {
	root string // File system root for storing automations

	// Serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(root string) *AutomationRepository {
	return &AutomationRepository{root: root}
}

// GetByID retrieves an automation by its ID from the file system.
func (ar *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	automation, err := ar.read(id)
	if err != nil {
		return nil, persistence.NewAutomationError("GetAutomationByID", id, err)
	}

	return automation, nil
}

// ListByOwner returns the automations of an owner, oldest first.
func (ar *AutomationRepository) ListByOwner(_ context.Context, ownerID string) ([]*models.Automation, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	root := os.DirFS(path.Join(ar.root, automationsDir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, persistence.NewOwnerError("ListAutomationsByOwner", ownerID, err)
	}

	automations := make([]*models.Automation, 0)

	for _, file := range jsonFiles {
		automation, err := ar.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, persistence.NewOwnerError("ListAutomationsByOwner", ownerID, err)
		}

		if automation.OwnerID == ownerID {
			automations = append(automations, automation)
		}
	}

	slices.SortFunc(automations, func(a, b *models.Automation) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return automations, nil
}

// Create stores a new automation.
func (ar *AutomationRepository) Create(_ context.Context, automation *models.Automation) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if _, err := os.Stat(ar.filePath(automation.ID)); err == nil {
		return persistence.NewAutomationError("CreateAutomation", automation.ID, persistence.ErrAutomationAlreadyExists)
	}

	if err := ar.write(automation); err != nil {
		return persistence.NewAutomationError("CreateAutomation", automation.ID, err)
	}

	return nil
}

// Modify loads an automation, applies change to it and stores the result.
func (ar *AutomationRepository) Modify(_ context.Context, op, id string, change func(*models.Automation)) (*models.Automation, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	automation, err := ar.read(id)
	if err != nil {
		return nil, persistence.NewAutomationError(op, id, err)
	}

	change(automation)

	if err := ar.write(automation); err != nil {
		return nil, persistence.NewAutomationError(op, id, err)
	}

	return automation, nil
}

// Delete removes an automation by its ID.
func (ar *AutomationRepository) Delete(_ context.Context, id string) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	err := os.Remove(ar.filePath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewAutomationError("DeleteAutomation", id, persistence.ErrAutomationNotFound)
	}

	if err != nil {
		return persistence.NewAutomationError("DeleteAutomation", id, err)
	}

	return nil
}

func (ar *AutomationRepository) filePath(id string) string {
	return filepath.Clean(path.Join(ar.root, automationsDir, filepath.Base(id)+".json"))
}

func (ar *AutomationRepository) read(id string) (*models.Automation, error) {
	body, err := os.ReadFile(ar.filePath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrAutomationNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch automation %s: %w", id, err)
	}

	var automation models.Automation

	err = json.Unmarshal(body, &automation)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation %s: %w", id, err)
	}

	return &automation, nil
}

func (ar *AutomationRepository) write(automation *models.Automation) error {
	err := os.MkdirAll(path.Join(ar.root, automationsDir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create automations directory: %w", err)
	}

	data, err := json.MarshalIndent(automation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal automation %s: %w", automation.ID, err)
	}

	return os.WriteFile(ar.filePath(automation.ID), data, 0600)
}
