package audio

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Subsystem names the host's audio stack.
type Subsystem string

const (
	SubsystemALSA       Subsystem = "alsa"
	SubsystemPulseAudio Subsystem = "pulseaudio"
	SubsystemCoreAudio  Subsystem = "coreaudio"
	SubsystemWASAPI     Subsystem = "wasapi"
	SubsystemNone       Subsystem = "none"
)

// Host describes the audio capabilities of the machine we run on.
type Host struct {
	OS        string
	Subsystem Subsystem
	HasDevice bool
	CI        bool
}

// ciVariables are set by common CI providers.
var ciVariables = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
	"CIRCLECI",
	"DRONE",
}

// hostLookup holds the OS queries detection needs, so tests can replace them.
type hostLookup struct {
	getenv   func(string) string
	stat     func(string) error
	readFile func(string) ([]byte, error)
	readDir  func(string) ([]os.DirEntry, error)
	output   func(name string, args ...string) ([]byte, error)
}

var osHostLookup = hostLookup{
	getenv:   os.Getenv,
	stat:     func(p string) error { _, err := os.Stat(p); return err },
	readFile: os.ReadFile,
	readDir:  os.ReadDir,
	output: func(name string, args ...string) ([]byte, error) {
		if _, err := exec.LookPath(name); err != nil {
			return nil, err
		}
		return exec.Command(name, args...).Output()
	},
}

// DetectHost inspects the running machine.
func DetectHost() *Host {
	return osHostLookup.detect(runtime.GOOS)
}

func (p hostLookup) detect(goos string) *Host {
	h := &Host{OS: goos, CI: p.isCI()}

	switch goos {
	case "linux":
		h.Subsystem = p.linuxSubsystem()
		h.HasDevice = p.linuxHasDevice()
	case "darwin":
		h.Subsystem = SubsystemCoreAudio
		h.HasDevice = true
	case "windows":
		h.Subsystem = SubsystemWASAPI
		h.HasDevice = p.windowsAudioRunning()
	default:
		h.Subsystem = SubsystemNone
	}

	log.Debug("Audio host detected", "host", h.String())
	return h
}

func (p hostLookup) isCI() bool {
	for _, name := range ciVariables {
		if v := p.getenv(name); v != "" && v != "false" && v != "0" {
			return true
		}
	}
	return false
}

func (p hostLookup) linuxSubsystem() Subsystem {
	if out, err := p.output("pactl", "info"); err == nil && strings.Contains(string(out), "Server Name") {
		return SubsystemPulseAudio
	}
	if p.stat("/proc/asound") == nil {
		return SubsystemALSA
	}
	return SubsystemNone
}

func (p hostLookup) linuxHasDevice() bool {
	if entries, err := p.readDir("/dev/snd"); err == nil {
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "pcm") {
				return true
			}
		}
	}
	if cards, err := p.readFile("/proc/asound/cards"); err == nil &&
		len(cards) > 0 && !strings.Contains(string(cards), "no soundcards") {
		return true
	}
	if out, err := p.output("pactl", "list", "short", "sinks"); err == nil && len(out) > 0 {
		return true
	}
	return false
}

func (p hostLookup) windowsAudioRunning() bool {
	out, err := p.output("sc", "query", "AudioSrv")
	if err != nil {
		// Assume a desktop Windows install has audio.
		return true
	}
	return strings.Contains(string(out), "RUNNING")
}

// Unusable reports whether the host should be treated as having no audio
// output, and why.
func (h *Host) Unusable() (string, bool) {
	switch {
	case h.CI:
		return "CI environment", true
	case h.Subsystem == SubsystemNone:
		return "no audio subsystem", true
	case !h.HasDevice:
		return "no audio devices", true
	default:
		return "", false
	}
}

// BufferSize is the device buffer length that avoids underruns on the host.
func (h *Host) BufferSize() time.Duration {
	switch {
	case h.OS == "darwin":
		return 100 * time.Millisecond
	case h.OS == "windows":
		return 80 * time.Millisecond
	case h.Subsystem == SubsystemPulseAudio:
		return 60 * time.Millisecond
	default:
		return 50 * time.Millisecond
	}
}

func (h *Host) retryPolicy() (attempts int, delay time.Duration) {
	switch {
	case h.OS == "darwin":
		return 3, 200 * time.Millisecond
	case h.OS == "windows":
		return 2, 150 * time.Millisecond
	case h.Subsystem == SubsystemPulseAudio:
		return 2, 100 * time.Millisecond
	default:
		return 1, 0
	}
}

// openWithRetry calls open up to attempts times, sleeping delay between
// tries. A ready timeout ends the retries at once: the context that timed out
// still exists, and a process gets only one.
func openWithRetry(attempts int, delay time.Duration, open func() (Device, error)) (Device, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.Debug("Retrying audio device initialization", "attempt", i+1, "of", attempts)
			time.Sleep(delay)
		}

		dev, err := open()
		if err == nil {
			return dev, nil
		}
		lastErr = err
		log.Debug("Audio device initialization failed", "attempt", i+1, "error", err)

		if errors.Is(err, ErrDeviceTimeout) {
			return nil, errors.Wrap(err, "open audio device")
		}
	}
	return nil, errors.Wrapf(lastErr, "open audio device after %d attempts", attempts)
}

func (h *Host) readyTimeout() time.Duration {
	if h.OS == "darwin" {
		return 10 * time.Second
	}
	return 5 * time.Second
}

func (h *Host) String() string {
	return fmt.Sprintf("%s/%s device=%v ci=%v", h.OS, h.Subsystem, h.HasDevice, h.CI)
}
