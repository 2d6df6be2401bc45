// Package config loads the settings of the command line tools from defaults,
// an optional YAML file, PIPELINE_EDITOR_* environment variables and bound
// flags, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/askiada/pipeline-editor/internal/logger"
	"github.com/askiada/pipeline-editor/pkg/editor/drawer"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

const (
	// AppName is also the base name of the config file.
	AppName = "pipeline-editor"
	// EnvPrefix prefixes every environment override, e.g.
	// PIPELINE_EDITOR_BACKEND_URL.
	EnvPrefix = "PIPELINE_EDITOR"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Backend struct {
	// URL of the pipeline service. Dir is used when it is empty.
	URL     string        `mapstructure:"url"`
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

type Editor struct {
	DragThreshold float64     `mapstructure:"drag_threshold"`
	HitTolerance  float64     `mapstructure:"hit_tolerance"`
	Layout        view.Layout `mapstructure:"layout"`
}

type Render struct {
	Margin  float64        `mapstructure:"margin"`
	Scale   float64        `mapstructure:"scale"`
	Palette drawer.Palette `mapstructure:"palette"`
}

// Config is the full configuration.
type Config struct {
	logger.Config `mapstructure:",squash"`

	Backend Backend `mapstructure:"backend"`
	Editor  Editor  `mapstructure:"editor"`
	Render  Render  `mapstructure:"render"`

	// File is the config file used, if any.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	log := logger.DefaultConfig()
	v.SetDefault("debug", log.Debug)
	v.SetDefault("log_format", log.LogFormat)
	v.SetDefault("log_file", "")

	v.SetDefault("backend.url", "")
	v.SetDefault("backend.dir", ".")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.retries", 2)

	layout := view.DefaultLayout()
	v.SetDefault("editor.drag_threshold", 3)
	v.SetDefault("editor.hit_tolerance", 6)
	v.SetDefault("editor.layout.step_width", layout.StepWidth)
	v.SetDefault("editor.layout.step_height", layout.StepHeight)
	v.SetDefault("editor.layout.anchor_size", layout.AnchorSize)
	v.SetDefault("editor.layout.padding", layout.Padding)

	palette := drawer.DefaultPalette()
	v.SetDefault("render.margin", 20)
	v.SetDefault("render.scale", 1)
	v.SetDefault("render.palette.background", palette.Background)
	v.SetDefault("render.palette.step", palette.Step)
	v.SetDefault("render.palette.step_selected", palette.StepSelected)
	v.SetDefault("render.palette.border", palette.Border)
	v.SetDefault("render.palette.text", palette.Text)
	v.SetDefault("render.palette.anchor", palette.Anchor)
	v.SetDefault("render.palette.connection", palette.Connection)
	v.SetDefault("render.palette.connection_selected", palette.ConnectionSelected)
}

func addSearchPaths(v *viper.Viper) {
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, AppName))
	}
}

// Load reads the configuration into v and decodes it. Flags must be bound to
// v before the call. A missing cfgFile is an error; a missing default file is
// not.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "unable to read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	cfg.Output = logger.DefaultConfig().Output
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	l := c.Editor.Layout
	if l.StepWidth <= 0 || l.StepHeight <= 0 || l.AnchorSize <= 0 || l.Padding < 0 {
		return errors.Wrapf(ErrInvalidConfig, "layout %+v", l)
	}
	if c.Editor.DragThreshold < 0 || c.Editor.HitTolerance < 0 {
		return errors.Wrap(ErrInvalidConfig, "drag threshold and hit tolerance must not be negative")
	}
	if c.Render.Scale <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "render scale %v", c.Render.Scale)
	}
	if c.Backend.Retries < 0 {
		return errors.Wrapf(ErrInvalidConfig, "backend retries %d", c.Backend.Retries)
	}
	if err := c.Render.Palette.Validate(); err != nil {
		return errors.Wrap(err, "render palette")
	}

	return nil
}
