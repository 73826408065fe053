package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Version information for all CLI tools
const (
	Version   = "1.0.0"
	BuildDate = "2026-10-15"
	CommitSHA = "unknown" // Will be set during build
)

// DefaultLanguage is the range of Koberi-C language versions the translator accepts.
const DefaultLanguage = ">=1.0.0, <2.0.0"

// VersionInfo contains version and build information
type VersionInfo struct {
	Version   string `json:"version"`
	Major     uint64 `json:"major"`
	Minor     uint64 `json:"minor"`
	Patch     uint64 `json:"patch"`
	Language  string `json:"language"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns structured version information
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   Version,
		Language:  DefaultLanguage,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if v, err := semver.NewVersion(Version); err == nil {
		info.Major, info.Minor, info.Patch = v.Major(), v.Minor(), v.Patch()
	}
	return info
}

// PrintVersion prints version information in a consistent format
func PrintVersion(w io.Writer, toolName string, jsonOutput bool) {
	info := GetVersionInfo()

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err != nil {
			// Fallback to plain text if JSON marshaling fails
			fmt.Fprintf(os.Stderr, "Error: Failed to marshal version info to JSON: %v\n", err)
			jsonOutput = false
		} else {
			fmt.Fprintln(w, string(data))
			return
		}
	}

	if !jsonOutput {
		fmt.Fprintf(w, "%s v%s\n", toolName, info.Version)
		fmt.Fprintf(w, "Language: %s\n", info.Language)
		fmt.Fprintf(w, "Build Date: %s\n", info.BuildDate)
		if info.CommitSHA != "unknown" && info.CommitSHA != "" {
			fmt.Fprintf(w, "Commit: %s\n", info.CommitSHA)
		}
		fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
		fmt.Fprintf(w, "Platform: %s/%s\n", info.Platform, info.Arch)
	}
}

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Logger provides structured logging for CLI tools. Info and debug lines go to
// Out; warnings and errors go to Err, colored when Err is a terminal.
type Logger struct {
	Verbose   bool
	DebugMode bool
	Out       io.Writer
	Err       io.Writer
	color     bool
	mu        sync.Mutex
}

// NewLogger creates a new logger instance writing to the process's standard streams
func NewLogger(verbose, debug bool) *Logger {
	return NewStreamLogger(os.Stdout, os.Stderr, verbose, debug)
}

// NewStreamLogger writes info and debug lines to out, warnings and errors to errOut.
// Colors are enabled when errOut is a terminal.
func NewStreamLogger(out, errOut io.Writer, verbose, debug bool) *Logger {
	l := &Logger{Verbose: verbose, DebugMode: debug, Out: out, Err: errOut}
	if f, ok := errOut.(*os.File); ok {
		l.color = IsTerminal(f.Fd())
	}
	return l
}

// NewBufferedLogger creates a logger writing both streams to w, without color.
func NewBufferedLogger(w io.Writer, verbose, debug bool) *Logger {
	return &Logger{Verbose: verbose, DebugMode: debug, Out: w, Err: w}
}

func (l *Logger) write(w io.Writer, level, color, format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s: %s", level, time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	if color != "" && l.color {
		line = color + line + colorReset
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, line)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		l.write(l.Out, "INFO", "", format, args...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		l.write(l.Out, "DEBUG", "", format, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(l.Err, "WARN", colorYellow, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(l.Err, "ERROR", colorRed, format, args...)
}

// Config represents the koberic configuration, usually read from koberic.json
type Config struct {
	Verbose   bool     `json:"verbose"`
	Debug     bool     `json:"debug"`
	OutputDir string   `json:"output_dir"`
	Indent    string   `json:"indent"`
	Entry     string   `json:"entry"`
	Language  string   `json:"language"`
	Libraries []string `json:"libraries"`
	Jobs      int      `json:"jobs"`
}

// DefaultConfigFile is looked up in the working directory when -config is not given.
const DefaultConfigFile = "koberic.json"

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Indent:   "    ",
		Entry:    "main",
		Language: DefaultLanguage,
		Jobs:     runtime.NumCPU(),
	}
}

// LoadConfig loads configuration from file. A missing file yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Default config if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// Validate checks option values that cannot be expressed in JSON types.
func (c *Config) Validate() error {
	if c.Language != "" {
		if _, err := semver.NewConstraint(c.Language); err != nil {
			return fmt.Errorf("language: %w", err)
		}
	}
	if strings.TrimSpace(c.Indent) != "" {
		return fmt.Errorf("indent must contain only whitespace, got %q", c.Indent)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.Entry == "" {
		return fmt.Errorf("entry must not be empty")
	}
	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FlagInfo represents information about a command flag
type FlagInfo struct {
	Name    string
	Usage   string
	Default string
}

// PrintUsage prints a standardized usage message
func PrintUsage(w io.Writer, tool, usage string, flags []FlagInfo) {
	fmt.Fprintf(w, "%s - Koberi-C to C translator\n\n", tool)
	fmt.Fprintf(w, "USAGE:\n")
	fmt.Fprintf(w, "    %s\n\n", usage)

	if len(flags) > 0 {
		fmt.Fprintf(w, "OPTIONS:\n")
		for _, flag := range flags {
			fmt.Fprintf(w, "%-20s %s\n", "    -"+flag.Name, flag.Usage)
			if flag.Default != "" {
				fmt.Fprintf(w, "%-20s Default: %s\n", "", flag.Default)
			}
		}
		fmt.Fprintf(w, "\n")
	}
}

// ValidateArgs validates command line arguments
func ValidateArgs(args []string, minArgs int, usage string) error {
	if len(args) < minArgs {
		return fmt.Errorf("insufficient arguments\nUsage: %s", usage)
	}
	return nil
}
