package svchost

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Configuration file extensions looked up next to the executable, in order
var configFileExts = []string{".toml", ".yaml", ".yml"}

// fileConfig maps the service table of a configuration file
type fileConfig struct {
	Service serviceSection `toml:"service" yaml:"service"`
}

type serviceSection struct {
	ServiceName      string `toml:"service_name" yaml:"service_name"`
	Instance         string `toml:"instance" yaml:"instance"`
	DisplayName      string `toml:"display_name" yaml:"display_name"`
	Description      string `toml:"description" yaml:"description"`
	Username         string `toml:"username" yaml:"username"`
	Password         string `toml:"password" yaml:"password"`
	StartMode        string `toml:"start_mode" yaml:"start_mode"`
	DelayedAutoStart bool   `toml:"delayed_auto_start" yaml:"delayed_auto_start"`
	Timeout          int    `toml:"timeout" yaml:"timeout"`
	ServicePath      string `toml:"service_path" yaml:"service_path"`
}

// WithFile overlays the values defined in a TOML or YAML configuration file,
// chosen by extension. Keys missing from the file leave the current values
// unchanged.
func (b *Builder) WithFile(path string) *Builder {
	if b.err != nil {
		return b
	}

	var (
		s       serviceSection
		defined func(key string) bool
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, defined, err = decodeYAMLFile(path)
	default:
		s, defined, err = decodeTOMLFile(path)
	}
	if err != nil {
		b.err = fmt.Errorf("svchost: load config %s: %w", path, err)
		return b
	}

	if defined("service_name") {
		b.WithServiceName(strings.TrimSpace(s.ServiceName))
	}
	if defined("instance") {
		b.WithInstance(strings.TrimSpace(s.Instance))
	}
	if defined("display_name") {
		b.WithDisplayName(s.DisplayName)
	}
	if defined("description") {
		b.WithDescription(s.Description)
	}
	if defined("username") {
		b.WithUsername(s.Username)
	}
	if defined("password") {
		b.WithPassword(s.Password)
	}
	if defined("start_mode") {
		mode, err := ParseStartMode(strings.TrimSpace(s.StartMode))
		if err != nil {
			if b.err == nil {
				b.err = err
			}
			return b
		}
		b.WithStartMode(mode)
	}
	if defined("delayed_auto_start") {
		b.WithDelayedAutoStart(s.DelayedAutoStart)
	}
	if defined("timeout") {
		b.WithTimeout(s.Timeout)
	}
	if defined("service_path") {
		p := s.ServicePath
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		b.WithServicePath(p)
	}

	return b
}

func decodeTOMLFile(path string) (serviceSection, func(string) bool, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceSection{}, nil, err
	}
	return raw.Service, func(key string) bool {
		return meta.IsDefined("service", key)
	}, nil
}

func decodeYAMLFile(path string) (serviceSection, func(string) bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return serviceSection{}, nil, err
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return serviceSection{}, nil, err
	}

	// A second pass records which keys the file actually sets
	var keys struct {
		Service map[string]yaml.Node `yaml:"service"`
	}
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return serviceSection{}, nil, err
	}

	return raw.Service, func(key string) bool {
		_, ok := keys.Service[key]
		return ok
	}, nil
}

// defaultConfigFile returns the first of <executable>.toml, .yaml or .yml
// found next to the executable, or ""
func defaultConfigFile() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	base := strings.TrimSuffix(exe, filepath.Ext(exe))
	for _, ext := range configFileExts {
		if fi, err := os.Stat(base + ext); err == nil && !fi.IsDir() {
			return base + ext
		}
	}
	return ""
}
