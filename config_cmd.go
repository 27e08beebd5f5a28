package main

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# write debug logs to the log file
debug: false

audio:
  # output backend: auto, oto, mock or none
  backend: "auto"
  # output sample rate in Hz
  sample_rate: 44100
  # how long to wait for a suspended device to resume
  resume_timeout: "2s"

focus:
  # focus length in minutes (1-60)
  work_minutes: 25
  # break length in minutes (1-30)
  break_minutes: 5
  # start the next focus block without waiting after a break
  auto_continue: false

sounds:
  # soundscape used before one has been picked: rain, ocean, forest,
  # coffee shop, brown noise or pink noise
  default: "rain"
  # length of the synthesized loop
  loop_length: "3s"
  # how long a preview plays
  preview_length: "2s"

state:
  # where the selected soundscape and last durations are kept
  # (default: the user data directory)
  # path: "~/.local/share/calmstep/state.yml"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the calmstep config file",
	Long:    paragraph(fmt.Sprintf("\n%s the calmstep config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("calmstep config\ncalmstep config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// The file is edited as is, so a broken config must not block this
	// command.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		file := configFile
		if file == "" {
			file = viper.GetViper().ConfigFileUsed()
		}
		if err := ensureConfigFile(file); err != nil {
			return err
		}

		c, err := editor.Cmd("calmstep", file)
		if err != nil {
			return errors.Wrap(err, "unable to set config file")
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return errors.Wrap(err, "unable to run command")
		}

		fmt.Println("Wrote config file to:", file)
		return nil
	},
}

// ensureConfigFile writes the default config to file unless it exists.
func ensureConfigFile(file string) error {
	if file == "" {
		return errors.New("no configuration file location")
	}

	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return errors.Newf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return errors.Wrap(err, "unable create directory")
		}

		f, err := os.Create(file)
		if err != nil {
			return errors.Wrap(err, "unable to create config file")
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return errors.Wrap(err, "unable to write config file")
		}
	} else if err != nil { // some other error occurred
		return errors.Wrap(err, "unable to stat config file")
	}
	return nil
}
