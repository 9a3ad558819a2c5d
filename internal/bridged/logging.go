package bridged

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig controls the daemon logger.
type LogConfig struct {
	Level     string
	Format    string
	Output    string
	AddSource bool
	UTC       bool
	Color     bool
}

// NewLogger builds the daemon logger. Output is stderr, stdout or a file path.
// Unknown levels fall back to info and unknown formats to console output.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			level = zap.InfoLevel
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	if cfg.UTC {
		encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(time.RFC3339))
		}
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.Color {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var out zapcore.WriteSyncer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = zapcore.Lock(os.Stderr)
	case "stdout":
		out = zapcore.Lock(os.Stdout)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log output: %w", err)
		}
		out = zapcore.Lock(f)
	}

	opts := []zap.Option{}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}

	version, commit := buildVersion()
	logger := zap.New(zapcore.NewCore(encoder, out, level), opts...).With(
		zap.String("app", "bridged"),
		zap.Int("pid", os.Getpid()),
		zap.String("version", version),
		zap.String("commit", commit),
	)
	return logger, nil
}

func buildVersion() (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev", "unknown"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	commit := "unknown"
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			commit = setting.Value
			break
		}
	}
	return version, commit
}
