package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Settings are the user adjustable shell options. The [settings] table of
// the config file and the set command both decode into it.
type Settings struct {
	Echo           bool    `mapstructure:"echo"`
	Quiet          bool    `mapstructure:"quiet"`
	StatusToStdout bool    `mapstructure:"status_to_stdout"`
	StatusPrefix   string  `mapstructure:"status_prefix"`
	Prompt         string  `mapstructure:"prompt"`
	Timeout        float64 `mapstructure:"timeout"`
	Debug          bool    `mapstructure:"debug"`
	Editor         string  `mapstructure:"editor"`
}

var settingHelp = map[string]string{
	"echo":             "show each command before running it",
	"quiet":            "suppress status feedback",
	"status_to_stdout": "send status feedback to stdout instead of stderr",
	"status_prefix":    "text shown before status feedback",
	"prompt":           "the interactive prompt",
	"timeout":          "seconds to wait for the server, 0 for no limit",
	"debug":            "log requests and show error details",
	"editor":           "program used by config edit",
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		StatusPrefix: "--",
		Prompt:       "tomcat-manager> ",
		Timeout:      10,
	}
}

// DecodeSettings applies the [settings] table of cfg over the defaults.
func DecodeSettings(cfg *Config) (Settings, error) {
	s := DefaultSettings()
	if cfg == nil || len(cfg.Settings) == 0 {
		return s, nil
	}
	if err := s.Apply(cfg.Settings); err != nil {
		return DefaultSettings(), err
	}
	return s, nil
}

// Apply decodes raw over s. Unknown names and unconvertible values are
// errors, and s is unchanged on error.
func (s *Settings) Apply(raw map[string]any) error {
	next := *s
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       boolWordHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &next,
	})
	if err != nil {
		return fmt.Errorf("building settings decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if next.Timeout < 0 {
		return fmt.Errorf("settings.timeout: must be >= 0, got %v", next.Timeout)
	}
	*s = next
	return nil
}

// Set changes one setting from its string form.
func (s *Settings) Set(name, value string) error {
	name = strings.TrimSpace(name)
	if _, ok := settingHelp[name]; !ok {
		return fmt.Errorf("unknown setting: %s", name)
	}
	return s.Apply(map[string]any{name: value})
}

// Map returns the settings keyed by name.
func (s Settings) Map() map[string]any {
	out := make(map[string]any, len(settingHelp))
	// Decoding into a map cannot fail for these field types.
	_ = mapstructure.Decode(s, &out)
	return out
}

// SettingNames returns every setting name in sorted order.
func SettingNames() []string {
	names := make([]string, 0, len(settingHelp))
	for name := range settingHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SettingHelp returns the one-line description of a setting.
func SettingHelp(name string) string {
	return settingHelp[name]
}

// ParseBool accepts the usual shell spellings of true and false.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "yes", "y", "true", "t", "on":
		return true, nil
	case "0", "no", "n", "false", "f", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}

func boolWordHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	return ParseBool(data.(string))
}
