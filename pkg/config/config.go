package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile = "config.ini"
	xdgAppName  = "gitlab-gantt"

	section     = "gitlab"
	keyToken    = "PersonalAccessToken"
	keyInstance = "Instance"
	keyGroup    = "Group"

	EnvToken    = "GITLAB_TOKEN"
	EnvInstance = "GITLAB_INSTANCE"
	EnvGroup    = "GITLAB_GROUP"
)

// ErrIncomplete is returned when a required setting is missing.
var ErrIncomplete = errors.New("missing or incomplete configuration file")

type Config struct {
	Token    string `yaml:"personal_access_token"`
	Instance string `yaml:"instance"`
	Group    string `yaml:"group"`
}

type yamlFile struct {
	GitLab Config `yaml:"gitlab"`
}

// GetConfigPath returns the per-user config file, used when no config file
// exists in the working directory.
func GetConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, xdgAppName, DefaultFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, DefaultFile), nil
}

// Locate returns the file to load. An explicitly requested path is always
// used as is; the default path falls back to the per-user config file when
// it does not exist.
func Locate(path string, explicit bool) string {
	if explicit {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if userPath, err := GetConfigPath(); err == nil {
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	return path
}

// Load reads the configuration from path and the environment.
//
// path is an INI file with a [gitlab] section, or a YAML file when it ends
// in .yaml or .yml. A missing file is not an error by itself. Variables from
// the environment or from a .env file override the file.
func Load(path string) (*Config, error) {
	// A missing .env file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}

	cfg := &Config{}
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.Group = strings.TrimSpace(cfg.Group)
	cfg.Instance = strings.TrimRight(strings.TrimSpace(cfg.Instance), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	var missing []string
	if c.Token == "" {
		missing = append(missing, keyToken)
	}
	if c.Instance == "" {
		missing = append(missing, keyInstance)
	}
	if c.Group == "" {
		missing = append(missing, keyGroup)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: [%s] %s not set", ErrIncomplete, section, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) readFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		var f yamlFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
		*c = f.GitLab
	default:
		f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, path)
		if err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
		s := f.Section(section)
		c.Token = s.Key(keyToken).String()
		c.Instance = s.Key(keyInstance).String()
		c.Group = s.Key(keyGroup).String()
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvInstance); v != "" {
		c.Instance = v
	}
	if v := os.Getenv(EnvGroup); v != "" {
		c.Group = v
	}
}
