package adaptapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bhatti/adaptapi-go/internal/jsoncodec"
)

const (
	// DefaultPlaceholder is the template path segment replaced by a version id
	DefaultPlaceholder = "latest"
	// DefaultVersionHeader is set on upgraded requests with the caller's version
	DefaultVersionHeader = "X-API-Version"
	// DefaultMaxBodyBytes bounds each buffered body
	DefaultMaxBodyBytes int64 = 1 << 20

	// disabledHeader turns the version header off when used as VersionHeader
	disabledHeader = "-"
)

// Versions maps a version identifier to the ordered adapter names that bring
// it up to the latest shape.
type Versions map[string][]string

// Config holds the declarative version table and pipeline settings.
type Config struct {
	// APIs maps a canonical path template to its declared versions
	APIs map[string]Versions `json:"apis" yaml:"apis" toml:"apis"`
	// Placeholder is the template segment replaced by each version id
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty" toml:"placeholder,omitempty"`
	// VersionHeader is set on upgraded requests; "-" disables it
	VersionHeader string `json:"version_header,omitempty" yaml:"version_header,omitempty" toml:"version_header,omitempty"`
	// MaxBodyBytes bounds request and response buffering
	MaxBodyBytes int64 `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty" toml:"max_body_bytes,omitempty"`
	// Debug enables debug logging
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty"`
	// AllowEmptyBody forwards empty bodies without running adapters instead of
	// rejecting them as undecodable
	AllowEmptyBody bool `json:"allow_empty_body,omitempty" yaml:"allow_empty_body,omitempty" toml:"allow_empty_body,omitempty"`
}

func (c *Config) placeholder() string {
	if c == nil || c.Placeholder == "" {
		return DefaultPlaceholder
	}
	return c.Placeholder
}

func (c *Config) versionHeader() string {
	switch {
	case c == nil || c.VersionHeader == "":
		return DefaultVersionHeader
	case c.VersionHeader == disabledHeader:
		return ""
	default:
		return c.VersionHeader
	}
}

func (c *Config) maxBodyBytes() int64 {
	if c == nil || c.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return c.MaxBodyBytes
}

// LoadConfigFromFile loads configuration from a file. Files ending in .toml are
// read as TOML; anything else is tried as YAML, then JSON.
func LoadConfigFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("failed to open config file: %w", err)}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("failed to read config file: %w", err)}
	}

	format := ""
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		format = "toml"
	}
	return ParseConfig(data, format)
}

// ParseConfig decodes configuration data. An empty format tries YAML, then JSON.
func ParseConfig(data []byte, format string) (*Config, error) {
	var config Config

	switch strings.ToLower(format) {
	case "toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("failed to parse config as TOML: %w", err)}
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("failed to parse config as YAML: %w", err)}
		}
	case "json":
		if err := jsoncodec.Unmarshal(data, &config); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("failed to parse config as JSON: %w", err)}
		}
	case "":
		// Try YAML first, then JSON
		if err := yaml.Unmarshal(data, &config); err != nil {
			config = Config{}
			if err := jsoncodec.Unmarshal(data, &config); err != nil {
				return nil, &ConfigError{Err: fmt.Errorf("failed to parse config file as YAML or JSON: %w", err)}
			}
		}
	default:
		return nil, &ConfigError{Err: fmt.Errorf("unsupported format: %s", format)}
	}

	if len(config.APIs) == 0 {
		return nil, &ConfigError{Err: errors.New("no versioned apis declared")}
	}
	return &config, nil
}

// pyProject is the subset of pyproject.toml holding the version table.
type pyProject struct {
	Tool struct {
		AdaptAPI map[string]Versions `toml:"adaptapi"`
	} `toml:"tool"`
}

// PyProjectFile is the file searched for by LoadPyProjectConfig.
const PyProjectFile = "pyproject.toml"

// LoadPyProjectConfig reads the [tool.adaptapi] table of the nearest
// pyproject.toml, searching startDir and then each parent directory. Keys are
// canonical path templates, values map version ids to adapter names.
func LoadPyProjectConfig(startDir string) (*Config, error) {
	path, err := findUp(startDir, PyProjectFile)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	var project pyProject
	if _, err := toml.DecodeFile(path, &project); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("failed to parse %s: %w", path, err)}
	}
	if len(project.Tool.AdaptAPI) == 0 {
		return nil, &ConfigError{Err: fmt.Errorf("%s has no [tool.adaptapi] table", path)}
	}
	return &Config{APIs: project.Tool.AdaptAPI}, nil
}

func findUp(startDir, name string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found above %s: %w", name, startDir, os.ErrNotExist)
		}
		dir = parent
	}
}

// SaveConfigToFile saves configuration to a file
func SaveConfigToFile(config *Config, filename string, format string) error {
	var data []byte
	var err error

	switch format {
	case "yaml", "yml":
		data, err = yaml.Marshal(config)
	case "json":
		data, err = jsoncodec.MarshalIndent(config, "", "  ")
	case "toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(config)
		data = buf.Bytes()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filename, data, 0644)
}

// ConfigBuilder helps build configurations programmatically
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: &Config{
			APIs: make(map[string]Versions),
		},
	}
}

// AddVersion declares version of template, upgraded by adapters in order.
func (cb *ConfigBuilder) AddVersion(template, version string, adapters ...string) *ConfigBuilder {
	versions, ok := cb.config.APIs[template]
	if !ok {
		versions = make(Versions)
		cb.config.APIs[template] = versions
	}
	versions[version] = append([]string(nil), adapters...)
	return cb
}

// WithPlaceholder sets the template placeholder segment
func (cb *ConfigBuilder) WithPlaceholder(placeholder string) *ConfigBuilder {
	cb.config.Placeholder = placeholder
	return cb
}

// WithVersionHeader sets the version header name
func (cb *ConfigBuilder) WithVersionHeader(header string) *ConfigBuilder {
	cb.config.VersionHeader = header
	return cb
}

// WithMaxBodyBytes sets the buffering limit
func (cb *ConfigBuilder) WithMaxBodyBytes(limit int64) *ConfigBuilder {
	cb.config.MaxBodyBytes = limit
	return cb
}

// WithDebug sets debug mode
func (cb *ConfigBuilder) WithDebug(debug bool) *ConfigBuilder {
	cb.config.Debug = debug
	return cb
}

// WithAllowEmptyBody lets empty bodies through unadapted
func (cb *ConfigBuilder) WithAllowEmptyBody(allow bool) *ConfigBuilder {
	cb.config.AllowEmptyBody = allow
	return cb
}

// Build returns the built configuration
func (cb *ConfigBuilder) Build() *Config {
	return cb.config
}

// ValidateConfig performs the structural checks that do not need adapter
// implementations: placeholders, version ids and path collisions.
func ValidateConfig(config *Config) error {
	_, err := buildTable(config, nil)
	return err
}
