package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLogMaxSize = 300 // MB

	FormatText = "text"
	FormatJSON = "json"
)

// FileLogConfig serializes file log related config in toml.
type FileLogConfig struct {
	// Log filename, leave empty to log to stdout.
	Filename string `toml:"filename"`
	// Max size for a single file, in MB.
	MaxSize int `toml:"maxSize"`
	// Max log keep days, default is never deleting.
	MaxDays int `toml:"maxDays"`
	// Maximum number of old log files to retain.
	MaxBackups int `toml:"maxBackups"`
}

// Config serializes log related config in toml.
type Config struct {
	// Log level: debug, info, warn, error.
	Level string `toml:"level"`
	// Log format: text or json.
	Format string        `toml:"format"`
	File   FileLogConfig `toml:"file"`
	// Development puts the logger in development mode, which panics on DPanic.
	Development bool `toml:"development"`
}

// ZapProperties records some information about zap.
type ZapProperties struct {
	Core   zapcore.Core
	Syncer zapcore.WriteSyncer
	Level  zap.AtomicLevel
}

func (cfg *Config) encoder() zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	if cfg.Format == FormatJSON {
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

func (cfg *Config) buildOptions(errSink zapcore.WriteSyncer) []zap.Option {
	opts := []zap.Option{zap.ErrorOutput(errSink), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return opts
}
