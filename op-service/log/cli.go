package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"

	opservice "github.com/jinmel/interop/op-service"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

// CLIFlags creates the logging flags for a service with the given env var prefix.
func CLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    LevelFlagName,
			Usage:   "The lowest log level that will be output: trace, debug, info, warn, error, crit",
			Value:   "info",
			EnvVars: opservice.PrefixEnvVar(envPrefix, "LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    FormatFlagName,
			Usage:   "Format the log output. Supported formats: 'text', 'terminal', 'logfmt', 'json'",
			Value:   string(FormatText),
			EnvVars: opservice.PrefixEnvVar(envPrefix, "LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    ColorFlagName,
			Usage:   "Color the log output if in terminal mode",
			EnvVars: opservice.PrefixEnvVar(envPrefix, "LOG_COLOR"),
		},
	}
}

// FormatType defines a type of log format.
type FormatType string

const (
	FormatText     FormatType = "text"
	FormatTerminal FormatType = "terminal"
	FormatLogFmt   FormatType = "logfmt"
	FormatJSON     FormatType = "json"
)

// CLIConfig represents the logger configuration flags.
type CLIConfig struct {
	Level  slog.Level
	Color  bool
	Format FormatType
}

// DefaultCLIConfig returns the default configuration for the logger.
func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		Level:  log.LevelInfo,
		Format: FormatText,
		Color:  false,
	}
}

// ReadCLIConfig extracts logging config from the CLI context.
func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	cfg := DefaultCLIConfig()
	if lvl, err := LevelFromString(ctx.String(LevelFlagName)); err == nil {
		cfg.Level = lvl
	}
	cfg.Format = FormatType(strings.ToLower(ctx.String(FormatFlagName)))
	if ctx.IsSet(ColorFlagName) {
		cfg.Color = ctx.Bool(ColorFlagName)
	} else {
		cfg.Color = cfg.Format == FormatTerminal && isatty.IsTerminal(os.Stdout.Fd())
	}
	return cfg
}

// Check validates the config.
func (cfg CLIConfig) Check() error {
	switch cfg.Format {
	case FormatText, FormatTerminal, FormatLogFmt, FormatJSON:
	default:
		return fmt.Errorf("unrecognized log format: %q", cfg.Format)
	}
	return nil
}

// LevelFromString parses a level name, case-insensitively.
func LevelFromString(lvl string) (slog.Level, error) {
	switch strings.ToLower(lvl) {
	case "trace":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown level: %v", lvl)
	}
}

// NewLogger creates a logger writing to wr with the configured format and level.
func NewLogger(wr io.Writer, cfg CLIConfig) log.Logger {
	h := log.NewGlogHandler(formatHandler(wr, cfg))
	h.Verbosity(cfg.Level)
	return log.NewLogger(h)
}

func formatHandler(wr io.Writer, cfg CLIConfig) slog.Handler {
	switch cfg.Format {
	case FormatJSON:
		return log.JSONHandler(wr)
	case FormatLogFmt:
		return log.LogfmtHandler(wr)
	case FormatTerminal:
		return log.NewTerminalHandler(wr, cfg.Color)
	default:
		return log.NewTerminalHandler(wr, false)
	}
}

// SetupDefaults installs a terminal logger as the root logger, so output is
// readable before the CLI flags have been parsed.
func SetupDefaults() {
	log.SetDefault(NewLogger(os.Stdout, DefaultCLIConfig()))
}

// SetGlobalLogHandler replaces the root logger with the given one.
func SetGlobalLogHandler(l log.Logger) {
	log.SetDefault(l)
}

// AppOut returns the writer the CLI app prints to, falling back to stdout.
func AppOut(ctx *cli.Context) io.Writer {
	if ctx == nil || ctx.App == nil || ctx.App.Writer == nil {
		return os.Stdout
	}
	return ctx.App.Writer
}
