package cli

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/render"
)

// Config holds settings read from the environment (and an optional .env file).
// Command line flags override these values.
type Config struct {
	LogLevel     string
	LogFormat    string
	ExportSize   image.Point
	TickInterval time.Duration
	BandRows     int
	Preview      string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    "text",
		ExportSize:   render.DefaultExportSize(),
		TickInterval: render.DefaultTickInterval,
		BandRows:     imgops.DefaultBandRows,
		Preview:      "auto",
	}
}

// LoadConfig loads envFiles (".env" when none are given) into the process environment
// and reads the TOKENMAKER_* variables. Missing env files are not an error; variables
// already set in the environment win over values from files.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := DefaultConfig()
	if v := os.Getenv("TOKENMAKER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("TOKENMAKER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("TOKENMAKER_EXPORT_SIZE"); v != "" {
		size, err := ParseSize(v)
		if err != nil {
			return Config{}, fmt.Errorf("TOKENMAKER_EXPORT_SIZE: %w", err)
		}
		cfg.ExportSize = size
	}
	if v := os.Getenv("TOKENMAKER_TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("TOKENMAKER_TICK_MS: invalid value %q", v)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("TOKENMAKER_BAND_ROWS"); v != "" {
		rows, err := strconv.Atoi(v)
		if err != nil || rows <= 0 {
			return Config{}, fmt.Errorf("TOKENMAKER_BAND_ROWS: invalid value %q", v)
		}
		cfg.BandRows = rows
	}
	if v := os.Getenv("TOKENMAKER_PREVIEW"); v != "" {
		cfg.Preview = strings.ToLower(v)
	}
	return cfg, nil
}

// ParseSize parses "WxH" (e.g. "512x512") into a positive size.
func ParseSize(s string) (image.Point, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return image.Point{}, fmt.Errorf("size %q: %w", s, imgops.ErrInvalidDimensions)
	}
	return image.Point{X: w, Y: h}, nil
}

// ParsePoint parses "x,y" into an integer point.
func ParsePoint(s string) (image.Point, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("invalid point %q, expected x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return image.Point{X: x, Y: y}, nil
}

// NewLogger builds the slog logger described by level ("debug", "info", "warn", "error")
// and format ("text" or "json").
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
