package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// GroupSpec is one command group declared in the groups file.
type GroupSpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Guarded bool   `yaml:"guarded"`
	// Disabled groups start switched off.
	Disabled bool `yaml:"disabled"`
}

type groupsFile struct {
	Groups []GroupSpec `yaml:"groups"`
}

// LoadGroups reads the groups file. A missing file yields no groups.
func LoadGroups(path string) ([]GroupSpec, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read groups: %w", err)
	}
	return ParseGroups(data)
}

func ParseGroups(data []byte) ([]GroupSpec, error) {
	var f groupsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse groups: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Groups))
	for i, g := range f.Groups {
		if g.ID == "" {
			return nil, fmt.Errorf("parse groups: entry %d has no id", i)
		}
		if _, dup := seen[g.ID]; dup {
			return nil, fmt.Errorf("parse groups: duplicate id %q", g.ID)
		}
		seen[g.ID] = struct{}{}
	}
	return f.Groups, nil
}
