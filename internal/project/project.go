// Package project locates vcc projects on disk.
//
// A directory is a vcc project root when it contains vcc.yml. Commands run
// from a subdirectory find their root by walking up:
//
//	root, err := project.FindRoot(".")
//	if errors.Is(err, project.ErrNotFound) {
//	    // fall back to flags
//	}
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the manifest file that marks a project root.
const ConfigFileName = "vcc.yml"

// ErrNotFound is returned by FindRoot when no ancestor holds a manifest.
var ErrNotFound = errors.New("no " + ConfigFileName + " found")

// Info describes a detected project.
type Info struct {
	Root       string // directory holding the manifest
	ConfigPath string // path to vcc.yml
	Namespace  string // tag namespace declared in the manifest, may be empty
}

// IsProject checks if a directory contains vcc.yml
func IsProject(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil && !info.IsDir()
}

// FindRoot walks up from start to the nearest directory holding vcc.yml.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}

	for {
		if IsProject(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, start)
		}
		dir = parent
	}
}

// Detect checks root for vcc.yml and reads the fields needed before the full
// configuration is loaded. Returns (found, info, error).
func Detect(root string) (bool, *Info, error) {
	configPath := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}

	var manifest struct {
		Namespace string `yaml:"namespace"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return false, nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	return true, &Info{Root: root, ConfigPath: configPath, Namespace: manifest.Namespace}, nil
}
