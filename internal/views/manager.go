package views

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/parqview/internal/models"
)

// Manager keeps saved views in a YAML file
type Manager struct {
	mu    sync.Mutex
	path  string
	views []models.View
}

// NewManager loads the views stored in configDir, if any
func NewManager(configDir string) (*Manager, error) {
	path := filepath.Join(configDir, "views.yaml")

	m := &Manager{
		path:  path,
		views: []models.View{},
	}

	if _, err := os.Stat(path); err == nil {
		if err := m.load(); err != nil {
			return nil, fmt.Errorf("failed to load views: %w", err)
		}
	}

	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read views file: %w", err)
	}

	if err := yaml.Unmarshal(data, &m.views); err != nil {
		return fmt.Errorf("failed to parse views: %w", err)
	}

	return nil
}

func (m *Manager) save() error {
	data, err := yaml.Marshal(m.views)
	if err != nil {
		return fmt.Errorf("failed to marshal views: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write views file: %w", err)
	}

	return nil
}

// Add saves the sort and filters for source under name. Saving a name that
// already exists for the same source overwrites it.
func (m *Manager) Add(name, source string, sortSpec models.SortSpec, filters models.Filters) (*models.View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("view name cannot be empty")
	}
	if source == "" {
		return nil, fmt.Errorf("view source cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for i, v := range m.views {
		if v.Source == source && strings.EqualFold(v.Name, name) {
			m.views[i].Sort = sortSpec
			m.views[i].Filters = filters.Clone()
			m.views[i].UpdatedAt = now
			if err := m.save(); err != nil {
				return nil, fmt.Errorf("failed to save view: %w", err)
			}
			view := m.views[i]
			return &view, nil
		}
	}

	view := models.View{
		ID:        uuid.New().String(),
		Name:      name,
		Source:    source,
		Sort:      sortSpec,
		Filters:   filters.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.views = append(m.views, view)

	if err := m.save(); err != nil {
		return nil, fmt.Errorf("failed to save view: %w", err)
	}

	return &view, nil
}

// Delete deletes a view by ID
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, v := range m.views {
		if v.ID == id {
			m.views = append(m.views[:i], m.views[i+1:]...)
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save views after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}

// Get returns a view by ID
func (m *Manager) Get(id string) (*models.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.views {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("view with ID '%s' was not found", id)
}

// Find returns the view with the given name for source
func (m *Manager) Find(source, name string) (*models.View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.views {
		if v.Source == source && strings.EqualFold(v.Name, name) {
			return &v, true
		}
	}
	return nil, false
}

// List returns every view
func (m *Manager) List() []models.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.View, len(m.views))
	copy(out, m.views)
	return out
}

// ForSource returns the views of source, most recently used first
func (m *Manager) ForSource(source string) []models.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.View
	for _, v := range m.views {
		if v.Source == source {
			out = append(out, v)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out
}

// MarkUsed updates usage statistics for a view
func (m *Manager) MarkUsed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, v := range m.views {
		if v.ID == id {
			m.views[i].UsageCount++
			m.views[i].LastUsed = time.Now()
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}
