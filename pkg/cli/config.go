package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/storage"
	"github.com/haivivi/intone/pkg/tonal"
)

const (
	// DefaultBaseDir is the configuration directory under the home directory.
	DefaultBaseDir = ".intone"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config is the persisted CLI configuration.
type Config struct {
	// CurrentProfile names the profile used when none is given.
	CurrentProfile string `yaml:"current_profile,omitempty"`

	// Profiles maps profile names to singer settings.
	Profiles map[string]*Profile `yaml:"profiles,omitempty"`

	// Storage is where rendered guides and MIDI files go.
	Storage *StorageConfig `yaml:"storage,omitempty"`

	configPath string
}

// StorageConfig selects the render destination.
type StorageConfig struct {
	// Dest is a directory or an s3://bucket/prefix URI.
	Dest string           `yaml:"dest,omitempty"`
	S3   storage.S3Config `yaml:"s3,omitempty"`
}

// Profile is a singer's range and practice preferences.
type Profile struct {
	Name        string              `yaml:"name" json:"name"`
	Gender      exercise.Gender     `yaml:"gender" json:"gender"`
	MinHz       float64             `yaml:"min_hz,omitempty" json:"min_hz,omitempty"`
	MaxHz       float64             `yaml:"max_hz,omitempty" json:"max_hz,omitempty"`
	DoHz        float64             `yaml:"do_hz,omitempty" json:"do_hz,omitempty"`
	KeySemitone int                 `yaml:"key_semitone,omitempty" json:"key_semitone,omitempty"`
	Tuning      tonal.Tuning        `yaml:"tuning,omitempty" json:"tuning,omitempty"`
	Difficulty  exercise.Difficulty `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	Mode        tonal.Mode          `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// ExerciseConfig returns the generator configuration for the profile.
// Unset fields take the defaults of the profile's gender.
func (p *Profile) ExerciseConfig() exercise.Config {
	cfg := exercise.DefaultConfig(p.Gender)
	if p.MinHz > 0 {
		cfg.MinHz = p.MinHz
	}
	if p.MaxHz > 0 {
		cfg.MaxHz = p.MaxHz
	}
	if p.DoHz > 0 {
		cfg.TonicHz = p.DoHz
	}
	cfg.KeySemitone = p.KeySemitone
	if p.Tuning != "" {
		cfg.Tuning = p.Tuning
	}
	if p.Difficulty != "" {
		cfg.Difficulty = p.Difficulty
	}
	if p.Mode != "" {
		cfg.Mode = p.Mode
	}
	return cfg
}

// Validate checks that the profile yields a usable exercise config.
func (p *Profile) Validate() error {
	switch p.Gender {
	case exercise.Male, exercise.Female:
	default:
		return fmt.Errorf("profile %q: gender must be male or female, got %q", p.Name, p.Gender)
	}
	if err := p.ExerciseConfig().Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// DefaultConfigPath returns ~/.intone/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration at path, or at DefaultConfigPath when
// path is empty. A missing file yields an empty configuration that is
// written on the first Save.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{Profiles: make(map[string]*Profile), configPath: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}
	for name, p := range cfg.Profiles {
		p.Name = name
	}
	cfg.configPath = path
	return cfg, nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddProfile validates p and stores it under name. The first profile
// added becomes current.
func (c *Config) AddProfile(name string, p *Profile) error {
	p.Name = name
	if err := p.Validate(); err != nil {
		return err
	}
	c.Profiles[name] = p
	if c.CurrentProfile == "" {
		c.CurrentProfile = name
	}
	return c.Save()
}

// DeleteProfile removes a profile.
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return c.Save()
}

// UseProfile makes name the current profile.
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns the named profile.
func (c *Config) GetProfile(name string) (*Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// ResolveProfile returns the named profile, the current profile when name
// is empty, or a default male profile when no profile is configured.
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	if name != "" {
		return c.GetProfile(name)
	}
	if c.CurrentProfile != "" {
		return c.GetProfile(c.CurrentProfile)
	}
	return &Profile{Name: "default", Gender: exercise.Male}, nil
}

// ListProfiles returns the profile names in sorted order.
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// StorageDest returns the configured render destination, or fallback.
func (c *Config) StorageDest(fallback string) (string, storage.S3Config) {
	if c.Storage == nil || c.Storage.Dest == "" {
		return fallback, storage.S3Config{}
	}
	return c.Storage.Dest, c.Storage.S3
}

// Redacted returns a copy of c with S3 credentials masked for display.
func (c *Config) Redacted() *Config {
	out := *c
	if c.Storage != nil {
		sc := *c.Storage
		sc.S3.AccessKey = MaskSecret(sc.S3.AccessKey)
		sc.S3.SecretKey = MaskSecret(sc.S3.SecretKey)
		out.Storage = &sc
	}
	return &out
}

// MaskSecret keeps the first and last four characters of s.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
