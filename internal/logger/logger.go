// Package logger builds the zap logger of the command line tools.
package logger

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON  = "json"
	FormatHuman = "human"
)

var ErrUnknownFormat = errors.New("unknown log format")

// Config selects the encoding, the level and the destinations of the logs.
type Config struct {
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	// LogFile is written in addition to Output when set.
	LogFile string `mapstructure:"log_file"`
	// Output is stderr by default, so that command output stays clean.
	Output string `mapstructure:"-"`
}

// DefaultConfig logs human readable info and above to stderr.
func DefaultConfig() Config {
	return Config{
		LogFormat: FormatHuman,
		Output:    "stderr",
	}
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	switch cfg.LogFormat {
	case FormatJSON:
		zapConfig = zap.NewProductionConfig()
	case FormatHuman, "":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", cfg.LogFormat)
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	zapConfig.OutputPaths = []string{output}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, errors.Wrap(err, "unable to create log directory")
		}
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.LogFile)
	}

	if cfg.Debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize logger")
	}

	return logger, nil
}
