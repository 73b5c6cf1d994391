// Package config loads and validates vcc.yml, the project manifest.
//
// A manifest names the tag namespace, the default sync mode, which regions
// are user-owned, how to find the comment delimiter for each language and
// which generated trees are reconciled into which source trees:
//
//	namespace: vcc
//	default_sync: FULL
//	reserve_prefixes: [custom]
//	languages:
//	  - extensions: [.h, .cpp]
//	    delimiter: "//"
//	mappings:
//	  - generated: build/gen
//	    target: src
//
// Scalar settings can be overridden from the environment with the VCC_
// prefix, e.g. VCC_LOG_LEVEL=debug.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/vcc/internal/project"
	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/regen"
	"github.com/simonhull/vcc/tag"
)

// EnvPrefix is the prefix of environment variables that override manifest
// settings.
const EnvPrefix = "VCC"

// Manifest is the decoded vcc.yml.
type Manifest struct {
	Namespace       string     `mapstructure:"namespace" yaml:"namespace" validate:"required,excludesall=<>/: "`
	DefaultSync     string     `mapstructure:"default_sync" yaml:"default_sync" validate:"omitempty,syncmode"`
	ReservePrefixes []string   `mapstructure:"reserve_prefixes" yaml:"reserve_prefixes,omitempty" validate:"dive,required"`
	Languages       []Language `mapstructure:"languages" yaml:"languages,omitempty" validate:"dive"`
	Mappings        []Mapping  `mapstructure:"mappings" yaml:"mappings,omitempty" validate:"dive"`
	Ignore          []string   `mapstructure:"ignore" yaml:"ignore,omitempty"`
	Workers         int        `mapstructure:"workers" yaml:"workers,omitempty" validate:"gte=0,lte=256"`
	LogLevel        string     `mapstructure:"log_level" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error silent off none"`

	// Root is the directory relative mapping paths resolve against. It is
	// set by Load and never serialized.
	Root string `mapstructure:"-" yaml:"-"`
}

// Language maps file extensions to the line-comment delimiter that
// introduces tags in them. An empty delimiter means tags appear bare.
type Language struct {
	Name       string   `mapstructure:"name" yaml:"name,omitempty"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions,flow" validate:"required,min=1,dive,startswith=."`
	Delimiter  string   `mapstructure:"delimiter" yaml:"delimiter"`
}

// Mapping pairs a generated file or tree with the source file or tree it
// is reconciled into.
type Mapping struct {
	Generated string `mapstructure:"generated" yaml:"generated" validate:"required"`
	Target    string `mapstructure:"target" yaml:"target" validate:"required"`
	Sync      string `mapstructure:"sync" yaml:"sync,omitempty" validate:"omitempty,syncmode"`
}

// Default returns the built-in manifest used when a project has no vcc.yml.
func Default() *Manifest {
	return &Manifest{
		Namespace:       tag.DefaultNamespace,
		DefaultSync:     merge.Full.String(),
		ReservePrefixes: []string{merge.DefaultReservePrefix},
		Languages:       DefaultLanguages(),
		Ignore:          []string{},
	}
}

// DefaultLanguages returns the built-in extension table.
func DefaultLanguages() []Language {
	return []Language{
		{Name: "c-family", Delimiter: "//", Extensions: []string{
			".c", ".h", ".cc", ".cpp", ".cxx", ".hh", ".hpp", ".hxx", ".m", ".mm",
			".java", ".kt", ".kts", ".scala", ".groovy", ".cs", ".swift", ".dart",
			".go", ".rs", ".js", ".jsx", ".mjs", ".ts", ".tsx", ".php", ".proto",
		}},
		{Name: "hash", Delimiter: "#", Extensions: []string{
			".py", ".rb", ".sh", ".bash", ".zsh", ".pl", ".r", ".yml", ".yaml", ".toml", ".cmake", ".ps1",
		}},
		{Name: "dash", Delimiter: "--", Extensions: []string{".sql", ".lua", ".hs", ".ada"}},
		{Name: "semicolon", Delimiter: ";", Extensions: []string{".lisp", ".el", ".clj", ".asm", ".ini"}},
		{Name: "percent", Delimiter: "%", Extensions: []string{".tex", ".erl"}},
		{Name: "markup", Delimiter: "", Extensions: []string{".xml", ".html", ".htm", ".xaml", ".svg"}},
	}
}

// Load reads the manifest at path, applies defaults and VCC_ environment
// overrides, and validates the result. Relative mapping paths resolve
// against the manifest's directory.
func Load(path string) (*Manifest, error) {
	def := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("namespace", def.Namespace)
	v.SetDefault("default_sync", def.DefaultSync)
	v.SetDefault("reserve_prefixes", def.ReservePrefixes)
	v.SetDefault("workers", 0)
	v.SetDefault("log_level", def.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var m Manifest
	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(m.Languages) == 0 {
		m.Languages = def.Languages
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	m.Root = abs

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadProject finds the nearest vcc.yml above dir and loads it. When
// explicit is set it is loaded instead. With no manifest anywhere, the
// defaults rooted at dir are returned and found is false.
func LoadProject(dir, explicit string) (m *Manifest, found bool, err error) {
	if explicit != "" {
		m, err = Load(explicit)
		return m, err == nil, err
	}

	root, err := project.FindRoot(dir)
	if errors.Is(err, project.ErrNotFound) {
		m = Default()
		if m.Root, err = filepath.Abs(dir); err != nil {
			return nil, false, err
		}
		return m, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	m, err = Load(filepath.Join(root, project.ConfigFileName))
	return m, err == nil, err
}

// DelimiterFor returns the comment delimiter for path based on its
// extension. Later languages override earlier ones for the same extension.
func (m *Manifest) DelimiterFor(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}

	delim, found := "", false
	for _, lang := range m.Languages {
		for _, e := range lang.Extensions {
			if strings.ToLower(e) == ext {
				delim, found = lang.Delimiter, true
			}
		}
	}
	return delim, found
}

// DefaultMode returns the manifest-wide sync mode. An empty or NA setting
// means FULL.
func (m *Manifest) DefaultMode() merge.SyncMode {
	mode, err := merge.ParseSyncMode(m.DefaultSync)
	if err != nil || mode == merge.NA {
		return merge.Full
	}
	return mode
}

// ModeFor returns the sync mode for a mapping, falling back to the
// manifest default.
func (m *Manifest) ModeFor(mp Mapping) merge.SyncMode {
	if mode, err := merge.ParseSyncMode(mp.Sync); err == nil && mode != merge.NA {
		return mode
	}
	return m.DefaultMode()
}

// KindFunc classifies regions using the manifest's reserve prefixes.
func (m *Manifest) KindFunc() merge.KindFunc {
	return merge.PrefixKind(m.ReservePrefixes...)
}

// EngineFor builds a regen engine for path with the given default mode.
func (m *Manifest) EngineFor(path string, mode merge.SyncMode) (*regen.Engine, error) {
	delim, ok := m.DelimiterFor(path)
	if !ok {
		return nil, fmt.Errorf("%s: no comment delimiter configured for extension %q", path, filepath.Ext(path))
	}
	return regen.New(regen.Options{
		Delimiter:   delim,
		Namespace:   m.Namespace,
		DefaultMode: mode,
		Kind:        m.KindFunc(),
	}), nil
}

// Resolve makes p absolute against the manifest root.
func (m *Manifest) Resolve(p string) string {
	if filepath.IsAbs(p) || m.Root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Root, p)
}

// Marshal encodes the manifest as YAML.
func Marshal(m *Manifest) ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// Write serializes m to path.
func Write(path string, m *Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
