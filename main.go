// Package main provides the entry point for the calmstep CLI application.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calmstep/calmstep/internal/audio"
	"github.com/calmstep/calmstep/internal/config"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	backend    string
	plain      bool

	// cfg is the loaded configuration, available once PersistentPreRunE has
	// run.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "calmstep",
		Short: "Breathe, then focus, with ambient sound",
		Long: paragraph(
			fmt.Sprintf("\nA %s: pick a soundscape, breathe, then focus.", keyword("calm step into deep work")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI("sounds")
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "unable to read config file %s", configFile)
		}
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Configuration loaded",
		"file", viper.ConfigFileUsed(),
		"backend", cfg.Audio.Backend,
		"command", cmd.Name(),
	)
	return nil
}

// interactive reports whether the TUI can own the terminal.
func interactive() bool {
	return !plain &&
		term.IsTerminal(int(os.Stdout.Fd())) &&
		term.IsTerminal(int(os.Stdin.Fd()))
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	backends := make([]string, 0, len(audio.Backends()))
	for _, b := range audio.Backends() {
		backends = append(backends, string(b))
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", fmt.Sprintf("audio backend (%s)", strings.Join(backends, ", ")))
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print progress as plain lines instead of the TUI")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("audio.backend", rootCmd.PersistentFlags().Lookup("backend"))

	config.BindDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, breatheCmd, focusCmd, soundsCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "calmstep")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "calmstep")}, dirs...)
	}

	if c := os.Getenv("CALMSTEP_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("calmstep")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("calmstep")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	path := filepath.Join(dirs[0], "calmstep.yml")
	if err := ensureConfigFile(path); err != nil {
		log.Error("Could not create default configuration", "error", err)
		return
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		log.Warn("Could not parse configuration file", "err", err)
	}
}
