package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists the editions of one work.
type Manifest struct {
	Work     string          `yaml:"work"`
	Editions []ManifestEntry `yaml:"editions"`
}

// ManifestEntry points at one edition file. Row corpora may expand to
// several editions.
type ManifestEntry struct {
	ID     string `yaml:"id,omitempty"`
	Path   string `yaml:"path"`
	Format string `yaml:"format,omitempty"`
}

// LoadManifest reads a YAML manifest. Relative paths resolve against the
// manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Editions) == 0 {
		return nil, fmt.Errorf("manifest %s lists no editions", path)
	}

	base := filepath.Dir(path)
	for i := range m.Editions {
		entry := &m.Editions[i]
		if entry.Path == "" {
			return nil, fmt.Errorf("manifest %s: edition %d has no path", path, i+1)
		}
		if !filepath.IsAbs(entry.Path) {
			entry.Path = filepath.Join(base, entry.Path)
		}
	}
	return &m, nil
}

// Load loads every edition the manifest lists, in manifest order.
func (m *Manifest) Load() ([]Edition, error) {
	var editions []Edition
	for _, entry := range m.Editions {
		loaded, err := LoadFile(entry.Path, entry.Format, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load edition %s: %w", entry.Path, err)
		}
		editions = append(editions, loaded...)
	}
	if err := CheckUnique(editions); err != nil {
		return nil, err
	}
	return editions, nil
}
