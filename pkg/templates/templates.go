// Package templates holds the bundled automation templates and applies them to
// automations.
package templates

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sync"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/models"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed bundles/*.yaml
var bundles embed.FS

// ErrTemplateNotFound is returned when a template id is not in the library.
var ErrTemplateNotFound = errors.New("template not found")

// Template is a hand-authored bundle of steps and connections. Step ids are local
// keys; Apply replaces them with fresh ids.
type Template struct {
	ID          string
	Name        string
	Description string
	Steps       []models.Step
	Connections []models.Connection
}

// Summary describes a template without its graph.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StepCount   int    `json:"stepCount"`
}

// Library is a read-only set of templates.
type Library struct {
	templates map[string]Template
	ids       []string
}

var loadDefault = sync.OnceValues(func() (*Library, error) {
	return Load(bundles, "bundles")
})

// Default returns the library of bundled templates.
func Default() (*Library, error) {
	return loadDefault()
}

// Load reads every *.yaml template under dir of fsys. Each template must form a
// valid automation graph on its own.
func Load(fsys fs.FS, dir string) (*Library, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	library := &Library{templates: make(map[string]Template, len(files))}

	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", file, err)
		}

		template, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}

		if _, exists := library.templates[template.ID]; exists {
			return nil, fmt.Errorf("duplicate template id %q in %s", template.ID, file)
		}

		library.templates[template.ID] = template
		library.ids = append(library.ids, template.ID)
	}

	slices.Sort(library.ids)

	return library, nil
}

// List returns the summaries of every template, ordered by id.
func (l *Library) List() []Summary {
	summaries := make([]Summary, 0, len(l.ids))
	for _, id := range l.ids {
		t := l.templates[id]
		summaries = append(summaries, Summary{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			StepCount:   len(t.Steps),
		})
	}

	return summaries
}

// Get returns the template with the given id.
func (l *Library) Get(id string) (Template, error) {
	t, ok := l.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}

	return t, nil
}

// Apply replaces the steps and connections of automation with a fresh copy of the
// template. Nothing is merged: prior steps and connections are discarded. Every
// other field, the name included, is kept.
func (l *Library) Apply(id string, automation models.Automation) (models.Automation, error) {
	t, err := l.Get(id)
	if err != nil {
		return models.Automation{}, err
	}

	ids := make(map[string]string, len(t.Steps))
	steps := make([]models.Step, 0, len(t.Steps))

	for _, step := range t.Steps {
		ids[step.ID] = uuid.NewString()

		step.ID = ids[step.ID]
		steps = append(steps, catalog.Normalize(step))
	}

	connections := make([]models.Connection, 0, len(t.Connections))
	for _, conn := range t.Connections {
		connections = append(connections, models.Connection{
			ID:           uuid.NewString(),
			SourceStepID: ids[conn.SourceStepID],
			TargetStepID: ids[conn.TargetStepID],
			SourcePort:   conn.SourcePort,
		})
	}

	automation.Steps = steps
	automation.Connections = connections

	return automation, nil
}

type templateFile struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Steps       []stepFile       `yaml:"steps"`
	Connections []connectionFile `yaml:"connections"`
}

type stepFile struct {
	Key      string          `yaml:"key"`
	Type     models.StepKind `yaml:"type"`
	Position models.Position `yaml:"position"`
	Data     map[string]any  `yaml:"data"`
}

type connectionFile struct {
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	SourceHandle string `yaml:"sourceHandle"`
}

func parse(data []byte) (Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Template{}, err
	}

	if file.ID == "" {
		return Template{}, errors.New("template id is required")
	}

	t := Template{
		ID:          file.ID,
		Name:        file.Name,
		Description: file.Description,
	}

	for _, s := range file.Steps {
		// Configs travel through their JSON shape so YAML and API data decode the same way.
		raw, err := json.Marshal(s.Data)
		if err != nil {
			return Template{}, fmt.Errorf("step %s: %w", s.Key, err)
		}

		if err := catalog.ValidateData(s.Type, raw); err != nil {
			return Template{}, fmt.Errorf("step %s: %w", s.Key, err)
		}

		config, err := models.DecodeStepConfig(s.Type, raw)
		if err != nil {
			return Template{}, fmt.Errorf("step %s: %w", s.Key, err)
		}

		t.Steps = append(t.Steps, models.Step{ID: s.Key, Kind: s.Type, Position: s.Position, Config: config})
	}

	for i, c := range file.Connections {
		t.Connections = append(t.Connections, models.Connection{
			ID:           fmt.Sprintf("%s-%d", file.ID, i),
			SourceStepID: c.Source,
			TargetStepID: c.Target,
			SourcePort:   c.SourceHandle,
		})
	}

	if err := graph.ValidateGraph(graph.NewValidator(nil), graph.New(t.Steps, t.Connections)); err != nil {
		return Template{}, err
	}

	return t, nil
}
