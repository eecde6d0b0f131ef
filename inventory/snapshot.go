// ABOUTME: Snapshot and override file I/O in YAML or JSON
// ABOUTME: The format is chosen from the file extension

package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markalston/migration-planner/models"
)

// Load reads a snapshot file. Records missing from the file decode as empty lists.
func Load(path string) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := readFile(path, &snap); err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if snap.VMs == nil {
		snap.VMs = []models.VmProfile{}
	}
	if snap.Workloads == nil {
		snap.Workloads = []models.WorkloadRecord{}
	}
	return &snap, nil
}

// Save writes a snapshot file atomically.
func Save(path string, snap *models.Snapshot) error {
	if err := writeFile(path, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

type overridesFile struct {
	Overrides []models.Override `json:"overrides" yaml:"overrides"`
}

// LoadOverrides reads persisted overrides. A missing file means none.
func LoadOverrides(path string) ([]models.Override, error) {
	var f overridesFile
	if err := readFile(path, &f); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading overrides: %w", err)
	}
	return f.Overrides, nil
}

// SaveOverrides persists overrides, replacing the file.
func SaveOverrides(path string, overrides []models.Override) error {
	if overrides == nil {
		overrides = []models.Override{}
	}
	if err := writeFile(path, overridesFile{Overrides: overrides}); err != nil {
		return fmt.Errorf("saving overrides: %w", err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isJSON(path) {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
