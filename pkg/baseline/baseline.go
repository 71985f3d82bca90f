// Package baseline saves exported profiling rows as named baselines and
// detects drift against them.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danpilch/perfkit/pkg/profiling"
	"github.com/google/uuid"
)

// Baseline is a named snapshot of exported profiling rows.
type Baseline struct {
	// ID distinguishes snapshots saved under the same name.
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Timestamp time.Time         `json:"timestamp"`
	Hostname  string            `json:"hostname"`
	Rows      []profiling.Row   `json:"rows"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DefaultDir returns the default baseline storage directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".perfkit/baselines"
	}
	return filepath.Join(home, ".perfkit", "baselines")
}

// Save writes a baseline to <dir>/<name>.json.
func (b *Baseline) Save(dir string) error {
	if err := validateName(b.Name); err != nil {
		return err
	}
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create baseline directory: %w", err)
	}

	path := filepath.Join(dir, b.Name+".json")
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write baseline: %w", err)
	}
	return nil
}

// Load reads a baseline from a JSON file.
func Load(name, dir string) (*Baseline, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = DefaultDir()
	}
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read baseline %q: %w", name, err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("cannot parse baseline: %w", err)
	}
	return &b, nil
}

// List returns all saved baseline names, sorted.
func List(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// validateName keeps baseline files inside their directory.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("baseline name is required")
	case name == "." || name == "..", strings.ContainsAny(name, `/\`):
		return fmt.Errorf("invalid baseline name %q: must not contain path separators", name)
	}
	return nil
}

// NewBaseline creates a new baseline from exported rows.
func NewBaseline(name string, rows []profiling.Row) *Baseline {
	hostname, _ := os.Hostname()
	return &Baseline{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Hostname:  hostname,
		Rows:      rows,
		Metadata:  make(map[string]string),
	}
}
