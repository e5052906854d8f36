package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timothycrosley/blox/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "blox.json"

	// DefaultPort is the default preview server port.
	DefaultPort = 8080

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultTemplatesDir is the default template directory.
	DefaultTemplatesDir = "templates"

	// DefaultIndent is the indentation used for formatted output.
	DefaultIndent = "  "

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "blox"
)

var (
	// ErrInvalid matches unreadable or malformed configuration files.
	ErrInvalid = errors.Sentinel("E050")

	// ErrNotFound matches a missing configuration file.
	ErrNotFound = errors.Sentinel("E051")

	// ErrInvalidValue matches configuration values that fail Validate.
	ErrInvalidValue = errors.Sentinel("E052")
)

// ConfigFileNames lists the file names Load looks for, in order.
var ConfigFileNames = []string{ConfigFileName, "blox.yaml", "blox.yml"}

// Config represents a blox project file.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Templates configures where template sources are read from.
	Templates TemplatesConfig `json:"templates,omitempty" yaml:"templates,omitempty"`

	// Render configures output formatting.
	Render RenderConfig `json:"render,omitempty" yaml:"render,omitempty"`

	// Compile configures the template compiler.
	Compile CompileConfig `json:"compile,omitempty" yaml:"compile,omitempty"`

	// Server configures the preview server.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// TemplatesConfig locates template sources.
type TemplatesConfig struct {
	// Dir is the template directory, relative to the config file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Extensions are the file extensions tried for a template name.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// S3 reads templates from a bucket instead of Dir when Bucket is set.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`

	// CacheTTL is how long compiled templates are cached (e.g. "5m").
	// Empty caches until invalidated.
	CacheTTL string `json:"cacheTTL,omitempty" yaml:"cacheTTL,omitempty"`
}

// S3Config names a bucket holding templates.
type S3Config struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// RenderConfig contains output settings.
type RenderConfig struct {
	// Formatted renders one node per line with indentation.
	Formatted bool `json:"formatted,omitempty" yaml:"formatted,omitempty"`

	// Indent is the indentation unit for formatted output.
	Indent string `json:"indent,omitempty" yaml:"indent,omitempty"`
}

// CompileConfig contains compiler settings.
type CompileConfig struct {
	// Strict rejects duplicate accessors.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`

	// Fallback is a registered tag built in place of unregistered ones.
	Fallback string `json:"fallback,omitempty" yaml:"fallback,omitempty"`

	// Queries maps a query name to a CSS selector.
	Queries map[string]string `json:"queries,omitempty" yaml:"queries,omitempty"`
}

// ServerConfig contains preview server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// Watch reloads templates when their files change.
	Watch bool `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory, using the first
// of ConfigFileNames that exists.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E051").
		WithDetail("No blox.json or blox.yaml found in " + dir)
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E051").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("E050").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E050").
			Wrap(err).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E050").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E050").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Templates.Dir == "" {
		c.Templates.Dir = DefaultTemplatesDir
	}
	if c.Templates.Extensions == nil {
		c.Templates.Extensions = []string{".html", ".xhtml", ".xml"}
	}
	for i, ext := range c.Templates.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			c.Templates.Extensions[i] = "." + ext
		}
	}

	if c.Render.Indent == "" {
		c.Render.Indent = DefaultIndent
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E052").
			WithDetail("server.port must be between 0 and 65535")
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if strings.Trim(c.Render.Indent, " \t") != "" {
		return errors.New("E052").
			WithDetailf("render.indent must be spaces or tabs, got %q", c.Render.Indent)
	}
	s3 := c.Templates.S3
	if s3.Bucket == "" && (s3.Prefix != "" || s3.Region != "") {
		return errors.New("E052").
			WithDetail("templates.s3.bucket is required when prefix or region is set")
	}
	for name, sel := range c.Compile.Queries {
		if strings.TrimSpace(sel) == "" {
			return errors.New("E052").
				WithDetailf("compile.queries.%s has an empty selector", name)
		}
	}
	return nil
}

// CacheTTL parses templates.cacheTTL. An empty value is zero.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Templates.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Templates.CacheTTL)
	if err != nil || d < 0 {
		return 0, errors.New("E052").
			WithDetailf("templates.cacheTTL %q is not a valid duration", c.Templates.CacheTTL).
			WithSuggestion(`Use a Go duration such as "30s" or "5m"`)
	}
	return d, nil
}

// UsesS3 reports whether templates are read from a bucket.
func (c *Config) UsesS3() bool {
	return c.Templates.S3.Bucket != ""
}

// TemplatesPath returns the template directory, resolved against the
// config file's directory when relative.
func (c *Config) TemplatesPath() string {
	if filepath.IsAbs(c.Templates.Dir) || c.configPath == "" {
		return c.Templates.Dir
	}
	return filepath.Join(c.Dir(), c.Templates.Dir)
}

// Address returns the address string for the preview server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the full URL for the preview server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E051").
				WithDetail("No blox.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent holding a config file.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
