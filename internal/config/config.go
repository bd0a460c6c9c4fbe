// Package config holds the provisioning settings. Values come from
// defaults, then an optional YAML file, then LUMPROV_* environment
// variables; command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Backend string

const (
	BackendCommand Backend = "command"
	BackendFiles   Backend = "files"
)

const (
	DefaultPasswordLength  = 16
	MinPasswordLength      = 8
	DefaultHomeRoot        = "/home"
	DefaultShell           = "/bin/bash"
	DefaultCredentialsPath = "/root/lumprov/credentials.txt"
	DefaultLogPath         = "/var/log/lumprov/provision.log"
	DefaultHostRoot        = "/host"
	DefaultCommandTimeout  = 30 * time.Second
)

const envPrefix = "LUMPROV_"

type Config struct {
	PasswordLength  int           `yaml:"password_length"`
	HomeRoot        string        `yaml:"home_root"`
	Shell           string        `yaml:"shell"`
	CredentialsPath string        `yaml:"credentials_path"`
	LogPath         string        `yaml:"log_path"`
	Backend         Backend       `yaml:"backend"`
	HostRoot        string        `yaml:"host_root"`
	VerifyPasswords bool          `yaml:"verify_passwords"`
	CommandTimeout  time.Duration `yaml:"command_timeout"`
}

func Default() Config {
	return Config{
		PasswordLength:  DefaultPasswordLength,
		HomeRoot:        DefaultHomeRoot,
		Shell:           DefaultShell,
		CredentialsPath: DefaultCredentialsPath,
		LogPath:         DefaultLogPath,
		Backend:         BackendCommand,
		HostRoot:        DefaultHostRoot,
		CommandTimeout:  DefaultCommandTimeout,
	}
}

// Load returns the defaults overlaid with the YAML file at p. An empty p
// skips the file. Keys absent from the file keep their defaults.
func Load(p string) (Config, error) {
	cfg := Default()
	if p == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", p, err)
	}
	return cfg, nil
}

func getenvDefault(getenv func(string) string, key, def string) string {
	v := getenv(envPrefix + key)
	if v == "" {
		return def
	}
	return v
}

// ApplyEnv overrides fields from LUMPROV_* variables. getenv defaults to
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	c.HomeRoot = getenvDefault(getenv, "HOME_ROOT", c.HomeRoot)
	c.Shell = getenvDefault(getenv, "SHELL", c.Shell)
	c.CredentialsPath = getenvDefault(getenv, "CREDENTIALS", c.CredentialsPath)
	c.LogPath = getenvDefault(getenv, "LOG", c.LogPath)
	c.Backend = Backend(getenvDefault(getenv, "BACKEND", string(c.Backend)))
	c.HostRoot = getenvDefault(getenv, "HOST_ROOT", c.HostRoot)

	if v := getenv(envPrefix + "PASSWORD_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPASSWORD_LENGTH: %w", envPrefix, err)
		}
		c.PasswordLength = n
	}
	if v := getenv(envPrefix + "VERIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sVERIFY: %w", envPrefix, err)
		}
		c.VerifyPasswords = b
	}
	if v := getenv(envPrefix + "COMMAND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCOMMAND_TIMEOUT: %w", envPrefix, err)
		}
		c.CommandTimeout = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendCommand, BackendFiles:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.PasswordLength < MinPasswordLength {
		errs = append(errs, fmt.Errorf("password_length %d is below %d", c.PasswordLength, MinPasswordLength))
	}
	if c.CommandTimeout < 0 {
		errs = append(errs, errors.New("command_timeout must not be negative"))
	}
	for _, f := range []struct{ key, val string }{
		{"home_root", c.HomeRoot},
		{"shell", c.Shell},
		{"credentials_path", c.CredentialsPath},
		{"log_path", c.LogPath},
	} {
		if !path.IsAbs(f.val) {
			errs = append(errs, fmt.Errorf("%s must be an absolute path, got %q", f.key, f.val))
		}
	}
	if c.Backend == BackendFiles && !path.IsAbs(c.HostRoot) {
		errs = append(errs, fmt.Errorf("host_root must be an absolute path, got %q", c.HostRoot))
	}
	return errors.Join(errs...)
}
