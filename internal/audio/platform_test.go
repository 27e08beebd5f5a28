package audio

import (
	"bytes"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mathInf() float64 { return math.Inf(1) }
func mathNaN() float64 { return math.NaN() }

type fakeEntry struct{ name string }

func (f fakeEntry) Name() string               { return f.name }
func (f fakeEntry) IsDir() bool                { return false }
func (f fakeEntry) Type() fs.FileMode          { return 0 }
func (f fakeEntry) Info() (fs.FileInfo, error) { return nil, errors.New("not implemented") }

func fakeHostLookup(env map[string]string, files map[string]string, devs []string, cmds map[string]string) hostLookup {
	return hostLookup{
		getenv: func(k string) string { return env[k] },
		stat: func(p string) error {
			if _, ok := files[p]; ok {
				return nil
			}
			return os.ErrNotExist
		},
		readFile: func(p string) ([]byte, error) {
			if c, ok := files[p]; ok {
				return []byte(c), nil
			}
			return nil, os.ErrNotExist
		},
		readDir: func(string) ([]os.DirEntry, error) {
			if devs == nil {
				return nil, os.ErrNotExist
			}
			entries := make([]os.DirEntry, len(devs))
			for i, d := range devs {
				entries[i] = fakeEntry{d}
			}
			return entries, nil
		},
		output: func(name string, args ...string) ([]byte, error) {
			key := name
			if len(args) > 0 {
				key += " " + args[0]
			}
			if out, ok := cmds[key]; ok {
				return []byte(out), nil
			}
			return nil, errors.New("command not found")
		},
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		p          hostLookup
		subsystem  Subsystem
		unusable   bool
		reason     string
		bufferSize string
	}{
		{
			name:       "linux alsa with devices",
			goos:       "linux",
			p:          fakeHostLookup(nil, map[string]string{"/proc/asound": ""}, []string{"controlC0", "pcmC0D0p"}, nil),
			subsystem:  SubsystemALSA,
			bufferSize: "50ms",
		},
		{
			name:       "linux pulseaudio",
			goos:       "linux",
			p:          fakeHostLookup(nil, nil, nil, map[string]string{"pactl info": "Server Name: pulseaudio", "pactl list": "0 sink"}),
			subsystem:  SubsystemPulseAudio,
			bufferSize: "60ms",
		},
		{
			name:      "linux without devices",
			goos:      "linux",
			p:         fakeHostLookup(nil, map[string]string{"/proc/asound": "", "/proc/asound/cards": "--- no soundcards ---"}, []string{"seq"}, nil),
			subsystem: SubsystemALSA,
			unusable:  true,
			reason:    "no audio devices",
		},
		{
			name:      "linux without subsystem",
			goos:      "linux",
			p:         fakeHostLookup(nil, nil, nil, nil),
			subsystem: SubsystemNone,
			unusable:  true,
			reason:    "no audio subsystem",
		},
		{
			name:      "ci",
			goos:      "darwin",
			p:         fakeHostLookup(map[string]string{"GITHUB_ACTIONS": "true"}, nil, nil, nil),
			subsystem: SubsystemCoreAudio,
			unusable:  true,
			reason:    "CI environment",
		},
		{
			name:       "ci disabled explicitly",
			goos:       "darwin",
			p:          fakeHostLookup(map[string]string{"CI": "false"}, nil, nil, nil),
			subsystem:  SubsystemCoreAudio,
			bufferSize: "100ms",
		},
		{
			name:      "windows audio stopped",
			goos:      "windows",
			p:         fakeHostLookup(nil, nil, nil, map[string]string{"sc query": "STATE: STOPPED"}),
			subsystem: SubsystemWASAPI,
			unusable:  true,
			reason:    "no audio devices",
		},
		{
			name:      "unknown os",
			goos:      "plan9",
			p:         fakeHostLookup(nil, nil, nil, nil),
			subsystem: SubsystemNone,
			unusable:  true,
			reason:    "no audio subsystem",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.p.detect(tt.goos)
			assert.Equal(t, tt.subsystem, h.Subsystem)

			reason, unusable := h.Unusable()
			assert.Equal(t, tt.unusable, unusable)
			assert.Equal(t, tt.reason, reason)
			if tt.bufferSize != "" {
				assert.Equal(t, tt.bufferSize, h.BufferSize().String())
			}
		})
	}
}

func TestParseBackend(t *testing.T) {
	for _, b := range Backends() {
		got, err := ParseBackend(string(b))
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}

	got, err := ParseBackend(" MOCK ")
	require.NoError(t, err)
	assert.Equal(t, BackendMock, got)

	got, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendAuto, got)

	_, err = ParseBackend("alsa")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestOpenerFor(t *testing.T) {
	_, err := OpenerFor(Options{Backend: BackendNone})(testRate)
	assert.True(t, errors.Is(err, ErrUnavailable))

	dev, err := OpenerFor(Options{Backend: BackendMock})(testRate)
	require.NoError(t, err)
	assert.Equal(t, testRate, dev.SampleRate())
}

func TestOpenWithRetry(t *testing.T) {
	errBusy := errors.New("device busy")
	timeout := errors.Wrap(ErrDeviceTimeout, "after 5s")

	tests := []struct {
		name      string
		results   []error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"first attempt", []error{nil}, 3, 1, nil},
		{"transient failures", []error{errBusy, errBusy, nil}, 3, 3, nil},
		{"out of attempts", []error{errBusy, errBusy}, 2, 2, errBusy},
		{"timeout is final", []error{timeout, nil, nil}, 3, 1, ErrDeviceTimeout},
		{"timeout after a failure", []error{errBusy, timeout, nil}, 3, 2, ErrDeviceTimeout},
		{"zero attempts tries once", []error{nil}, 0, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			dev, err := openWithRetry(tt.attempts, 0, func() (Device, error) {
				err := tt.results[calls]
				calls++
				if err != nil {
					return nil, err
				}
				return NewMockDevice(testRate), nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, dev)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, dev)
		})
	}
}

func TestEncodeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	src := newConstantSource(t, 0.5, 100)
	require.NoError(t, EncodeWAV(f, src))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("RIFF")))
	assert.Equal(t, []byte("WAVE"), data[8:12])
	// 44-byte header plus 100 frames of 16-bit stereo.
	assert.Len(t, data, 44+100*4)
}
