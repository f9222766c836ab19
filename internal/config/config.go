package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/xtractpdf/internal/logging"
	"github.com/a3tai/xtractpdf/internal/pipeline"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Log formats
	FormatText = "text"
	FormatJSON = "json"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = FormatText
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// EnvPrefix prefixes every environment variable, e.g. XTRACT_DIR.
	EnvPrefix = "XTRACT"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned by Load when --version is on the command
// line. Callers print version information and exit.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the extraction server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document locations
	PDFDirectory    string
	OutputDirectory string

	// Extraction
	MaxFileSize int64 // Maximum PDF file size in bytes
	RowsAfter   int   // Rows kept after each invoice anchor row

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio,
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    currentDir,
		OutputDirectory: currentDir,
		MaxFileSize:     DefaultMaxFileSize,
		RowsAfter:       pipeline.DefaultRowsAfter,
		Version:         "1.0.0",
		ServerName:      "xtractpdf",
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

// Load builds the configuration from args (without the program name), the
// environment and an optional .env file in the working directory. Flags
// override environment variables, which override defaults.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot read .env: %w", err)
	}

	cfg := DefaultConfig()
	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet("xtractpdf", pflag.ContinueOnError)
	defineFlags(fs, cfg)
	fs.Usage = func() { usage(os.Stderr, fs) }
	bindFlags(v, fs)

	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return nil, ErrVersionRequested
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	populateFromViper(v, cfg)

	for _, dir := range []*string{&cfg.PDFDirectory, &cfg.OutputDirectory} {
		if *dir != "" {
			if abs, err := filepath.Abs(*dir); err == nil {
				*dir = abs
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("outdir", cfg.OutputDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("logformat", cfg.LogFormat)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("rowsafter", cfg.RowsAfter)
}

func defineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing input PDF files")
	fs.String("outdir", cfg.OutputDirectory, "Directory spreadsheets are written to")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("logformat", cfg.LogFormat, "Log format (text, json)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Int("rowsafter", cfg.RowsAfter, "Rows read after each invoice anchor row")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	for _, name := range []string{"mode", "host", "port", "dir", "outdir", "loglevel", "logformat", "maxfilesize", "rowsafter"} {
		_ = v.BindPFlag(name, fs.Lookup(name))
	}
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage of %s:\n", os.Args[0])
	fmt.Fprintf(w, "\nxtractpdf - MCP server extracting invoice and manifest tables from PDF files\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s --dir=/data/in --outdir=/data/out          # stdio mode\n", os.Args[0])
	fmt.Fprintf(w, "  %s --mode=server --host=0.0.0.0 --port=8081  # HTTP/SSE server\n", os.Args[0])
	fmt.Fprintf(w, "\nEnvironment Variables (also read from .env):\n")
	fmt.Fprintf(w, "  XTRACT_MODE, XTRACT_HOST, XTRACT_PORT, XTRACT_DIR, XTRACT_OUTDIR,\n")
	fmt.Fprintf(w, "  XTRACT_LOGLEVEL, XTRACT_LOGFORMAT, XTRACT_MAXFILESIZE, XTRACT_ROWSAFTER\n")
}

func populateFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.OutputDirectory = v.GetString("outdir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.LogFormat = v.GetString("logformat")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.RowsAfter = v.GetInt("rowsafter")
}

// Validate checks the configuration and creates missing directories.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if err := ensureDir("PDF", c.PDFDirectory); err != nil {
		return err
	}
	if err := ensureDir("output", c.OutputDirectory); err != nil {
		return err
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.RowsAfter < 0 {
		return errors.New("rows after anchor cannot be negative")
	}

	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}

	return nil
}

func ensureDir(label, dir string) error {
	if dir == "" {
		return fmt.Errorf("%s directory cannot be empty", label)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", label, dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", label, dir, err)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, OutputDirectory: %s, LogLevel: %s, MaxFileSize: %d, RowsAfter: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.OutputDirectory, c.LogLevel, c.MaxFileSize, c.RowsAfter)
}
