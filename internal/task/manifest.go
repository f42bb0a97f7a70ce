package task

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyManifest is returned when a manifest lists no tasks.
var ErrEmptyManifest = errors.New("manifest has no tasks")

// Spec is one manifest entry before IDs are assigned.
type Spec struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Size        uint   `yaml:"size" mapstructure:"size"`
	URL         string `yaml:"url" mapstructure:"url"`
	Installable bool   `yaml:"installable" mapstructure:"installable"`
}

// Manifest is the on-disk task list.
//
//	tasks:
//	  - name: git
//	    size: 150
//	  - name: ripgrep.deb
//	    url: https://example.com/ripgrep.deb
//	    installable: true
type Manifest struct {
	Tasks []Spec `yaml:"tasks"`
}

// LoadManifest reads and validates a YAML manifest, returning tasks with
// sequential IDs in file order.
func LoadManifest(path string) ([]Task, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest path is user supplied
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML. See LoadManifest.
func ParseManifest(data []byte) ([]Task, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Tasks) == 0 {
		return nil, ErrEmptyManifest
	}
	return FromSpecs(m.Tasks)
}

// FromSpecs validates specs and assigns IDs 0..n-1.
func FromSpecs(specs []Spec) ([]Task, error) {
	tasks := make([]Task, 0, len(specs))
	for i, s := range specs {
		name := strings.TrimSpace(s.Name)
		switch name {
		case "":
			return nil, fmt.Errorf("task %d: name is required", i)
		case ".", "..":
			return nil, fmt.Errorf("task %d: %q is not a valid name", i, name)
		}
		url := strings.TrimSpace(s.URL)
		if url == "" && s.Size == 0 {
			return nil, fmt.Errorf("task %d (%s): size must be positive when no url is given", i, name)
		}
		tasks = append(tasks, Task{
			ID:          ID(i),
			Name:        name,
			Size:        s.Size,
			URL:         url,
			Installable: s.Installable,
		})
	}
	return tasks, nil
}

// DefaultPackages is the built-in demo workload: the packages apt pulls in
// for git, with sizes in work units.
func DefaultPackages() []Task {
	tasks, _ := FromSpecs([]Spec{
		{Name: "git", Size: 150},
		{Name: "git-man", Size: 80},
		{Name: "liberror-perl", Size: 40},
		{Name: "git-core", Size: 100},
		{Name: "ca-certificates", Size: 60},
	})
	return tasks
}
