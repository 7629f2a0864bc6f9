package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/launchpad/internal/build"
	"github.com/roach88/launchpad/internal/program"
	"github.com/roach88/launchpad/internal/registry"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "launchpad.yaml"

// DefaultBuildCommand packages one Python file into a single windowless
// executable.
const DefaultBuildCommand = `pyinstaller --onefile --noconsole --clean "{source_file}" --distpath "{output_dir}" --workpath "{temp_dir}" --specpath "{temp_dir}" --name "{program_name}"`

// ErrUnknownFormat is returned for a config file with an unrecognized
// extension.
var ErrUnknownFormat = errors.New("unknown config format")

// Config holds every setting.
type Config struct {
	ProgramsRoot    string              `yaml:"programs_root" toml:"programs_root"`
	ArtifactsRoot   string              `yaml:"artifacts_root" toml:"artifacts_root"`
	StaticRoot      string              `yaml:"static_root" toml:"static_root"`
	IconsDir        string              `yaml:"icons_dir" toml:"icons_dir"`
	PlaceholderIcon string              `yaml:"placeholder_icon" toml:"placeholder_icon"`
	JournalPath     string              `yaml:"journal_path" toml:"journal_path"`
	BuildTimeout    Duration            `yaml:"build_timeout" toml:"build_timeout"`
	TempRoot        string              `yaml:"temp_root" toml:"temp_root"`
	Languages       map[string]Language `yaml:"languages" toml:"languages"`
}

// Language holds the per-language build settings.
type Language struct {
	Extension    string `yaml:"extension" toml:"extension"`
	Interpreter  string `yaml:"interpreter" toml:"interpreter"`
	BuildCommand string `yaml:"build_command" toml:"build_command"`
}

// Default returns the built-in configuration.
func Default() *Config {
	interpreter := "python3"
	if runtime.GOOS == "windows" {
		interpreter = "python"
	}
	return &Config{
		ProgramsRoot:    "programs",
		ArtifactsRoot:   "exe_programs",
		StaticRoot:      "static",
		IconsDir:        "program_icons",
		PlaceholderIcon: "placeholder_icon.png",
		JournalPath:     "launchpad.db",
		BuildTimeout:    Duration{build.DefaultTimeout},
		Languages: map[string]Language{
			string(program.Python): {
				Extension:    ".py",
				Interpreter:  interpreter,
				BuildCommand: DefaultBuildCommand,
			},
		},
	}
}

// Load reads the config file at path over the defaults.
func Load(path string) (*Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes content in the named format ("yaml" or "toml").
func Parse(content []byte, format string) (*Config, error) {
	return parse(content, format)
}

func parse(content []byte, format string) (*Config, error) {
	var raw map[string]any
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	cfg := Default()
	// Languages named in the file replace the defaults entirely.
	if _, ok := raw["languages"]; ok {
		cfg.Languages = nil
	}
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	}
	cfg.fillLanguageDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillLanguageDefaults completes partially specified languages from the
// built-in settings of the same name.
func (c *Config) fillLanguageDefaults() {
	defaults := Default().Languages
	for name, lang := range c.Languages {
		def, ok := defaults[name]
		if !ok {
			continue
		}
		if lang.Extension == "" {
			lang.Extension = def.Extension
		}
		if lang.Interpreter == "" {
			lang.Interpreter = def.Interpreter
		}
		if lang.BuildCommand == "" {
			lang.BuildCommand = def.BuildCommand
		}
		c.Languages[name] = lang
	}
}

func detectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Validate checks the settings that the schema cannot: language names,
// build templates and the timeout.
func (c *Config) Validate() error {
	if c.BuildTimeout.Duration <= 0 {
		return fmt.Errorf("build_timeout must be positive, got %s", c.BuildTimeout)
	}
	if len(c.Languages) == 0 {
		return errors.New("no languages configured")
	}
	for name, lang := range c.Languages {
		if _, err := program.ParseLanguage(name); err != nil {
			return fmt.Errorf("languages.%s: %w", name, err)
		}
		if lang.Extension == "" || lang.Interpreter == "" {
			return fmt.Errorf("languages.%s: extension and interpreter are required", name)
		}
		if _, err := build.ParseTemplate(lang.BuildCommand); err != nil {
			return fmt.Errorf("languages.%s.build_command: %w", name, err)
		}
	}
	return nil
}

// Layout returns the registry layout described by the config.
func (c *Config) Layout() registry.Layout {
	return registry.Layout{
		ProgramsRoot:    c.ProgramsRoot,
		ArtifactsRoot:   c.ArtifactsRoot,
		StaticRoot:      c.StaticRoot,
		IconsDir:        c.IconsDir,
		PlaceholderIcon: c.PlaceholderIcon,
	}
}

// Language returns the settings for lang.
func (c *Config) Language(lang program.Language) (Language, bool) {
	l, ok := c.Languages[string(lang)]
	return l, ok
}

// Duration is a time.Duration written as a Go duration string ("20m").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
