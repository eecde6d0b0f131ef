// ABOUTME: File-backed sample source and store persistence
// ABOUTME: Reads YAML or JSON sample exports so collection can run offline

package perf

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markalston/migration-planner/models"
)

// FileSource re-reads a sample export on every collection.
type FileSource struct {
	Path string
}

func (f FileSource) Sample(ctx context.Context) ([]models.PerfSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadSamples(f.Path)
}

// ReadSamples decodes a list of samples, choosing JSON or YAML by extension.
// A missing file yields no samples.
func ReadSamples(path string) ([]models.PerfSample, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	var samples []models.PerfSample
	if isJSON(path) {
		err = json.Unmarshal(data, &samples)
	} else {
		err = yaml.Unmarshal(data, &samples)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing samples %s: %w", path, err)
	}
	return samples, nil
}

// WriteSamples persists every sample in the store.
func WriteSamples(path string, s *Store) error {
	samples := s.All()
	if samples == nil {
		samples = []models.PerfSample{}
	}

	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(samples, "", "  ")
	} else {
		data, err = yaml.Marshal(samples)
	}
	if err != nil {
		return fmt.Errorf("encoding samples: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return os.Rename(tmp, path)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
