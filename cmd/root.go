// Package cmd wires haul's cobra commands to configuration and the run engine.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/haul/internal/config"
	"github.com/zjrosen/haul/internal/log"
)

func init() {
	// Query the terminal background before any bubbletea program starts so
	// the OSC 11 reply cannot race the program's input loop.
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "haul",
	Short: "Install a list of packages with a fixed pool of workers",
	Long: `haul installs or downloads a list of packages using a fixed pool of
workers and shows live progress inline in the terminal.

Running haul without a subcommand is the same as 'haul run'.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runRun,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

var logCleanup func()

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .haul/config.yaml, then ~/.config/haul/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write a debug log (path from HAUL_LOG, default: debug.log)")

	addRunFlags(rootCmd)
}

// setDefaults registers every config key so environment variables and
// Unmarshal see keys that no config file mentions.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("workers", d.Workers)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("quit_keys", d.QuitKeys)
	v.SetDefault("error_policy", d.ErrorPolicy)
	v.SetDefault("coalesce_progress", d.CoalesceProgress)
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("plain", d.Plain)
	v.SetDefault("download.dir", d.Download.Dir)
	v.SetDefault("download.timeout", d.Download.Timeout)
	v.SetDefault("simulate.chunk_units", d.Simulate.ChunkUnits)
	v.SetDefault("simulate.unit_delay", d.Simulate.UnitDelay)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("install.enabled", d.Install.Enabled)
	v.SetDefault("install.command", d.Install.Command)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("flags", d.Flags)
}

func initConfig() {
	if err := loadConfig(viper.GetViper(), cfgFile, &cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file and unmarshals it over the defaults.
// Lookup order: explicit path, .haul/config.yaml, ~/.config/haul/config.yaml.
// A missing file is not an error; the defaults apply.
func loadConfig(v *viper.Viper, explicit string, out *config.Config) error {
	setDefaults(v)
	v.SetEnvPrefix("HAUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case fileExists(config.DefaultPath):
		v.SetConfigFile(config.DefaultPath)
	default:
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".config", "haul"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setupLogging enables the debug log when --debug or HAUL_DEBUG is set.
// HAUL_LOG_LEVEL raises the minimum level.
// Nothing is logged to stdout; it would corrupt the inline view.
func setupLogging() error {
	if !debugFlag && os.Getenv("HAUL_DEBUG") == "" {
		return nil
	}
	logPath := os.Getenv("HAUL_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup
	if level := os.Getenv("HAUL_LOG_LEVEL"); level != "" {
		log.SetMinLevel(log.ParseLevel(level))
	}
	log.Info(log.CatConfig, "haul starting", "version", version, "config", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
