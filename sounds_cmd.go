package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/calmstep/calmstep/internal/audio"
	"github.com/calmstep/calmstep/internal/lifecycle"
	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/calmstep/calmstep/ui"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	playDuration   time.Duration
	renderDuration time.Duration
	renderSeed     int64
	renderOutput   string

	soundsCmd = &cobra.Command{
		Use:     "sounds",
		Aliases: []string{"sound"},
		Short:   "Pick, preview and export soundscapes",
		Long:    paragraph(fmt.Sprintf("\nWithout a subcommand, opens the %s picker.", keyword("soundscape"))),
		Example: paragraph("calmstep sounds\ncalmstep sounds list\ncalmstep sounds select ocean\ncalmstep sounds render rain -o rain.wav"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runTUI("sounds")
		},
	}

	soundsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the soundscapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := openSettings(cfg)
			if err != nil {
				return err
			}
			var stored int
			selected := soundscape.ID(0)
			if settings.Load(ui.SoundKey, &stored) {
				selected = soundscape.ID(stored)
			}
			listSounds(cmd.OutOrStdout(), selected, cfg.DefaultSound())
			return nil
		},
	}

	soundsSelectCmd = &cobra.Command{
		Use:   "select <name>",
		Short: "Choose the soundscape for focus sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSound(args)
			if err != nil {
				return err
			}
			settings, err := openSettings(cfg)
			if err != nil {
				return err
			}
			if err := settings.Save(ui.SoundKey, int(id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected %s.\n", keyword(id.String()))
			return nil
		},
	}

	soundsPreviewCmd = &cobra.Command{
		Use:   "preview <name>",
		Short: "Play a short preview of a soundscape",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSound(args)
			if err != nil {
				return err
			}
			return playSound(cmd.OutOrStdout(), id, cfg.Sounds.PreviewLength, true)
		},
	}

	soundsPlayCmd = &cobra.Command{
		Use:   "play <name>",
		Short: "Loop a soundscape until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSound(args)
			if err != nil {
				return err
			}
			return playSound(cmd.OutOrStdout(), id, playDuration, false)
		},
	}

	soundsRenderCmd = &cobra.Command{
		Use:     "render <name>",
		Short:   "Write a soundscape to a WAV file",
		Example: paragraph("calmstep sounds render rain -o rain.wav --duration 30s"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSound(args)
			if err != nil {
				return err
			}
			if renderDuration <= 0 {
				return errors.Newf("duration must be positive, got %s", renderDuration)
			}
			out := renderOutput
			if out == "" {
				out = strings.ReplaceAll(strings.ToLower(id.String()), " ", "-") + ".wav"
			}

			f, err := os.Create(out)
			if err != nil {
				return errors.Wrap(err, "unable to create output file")
			}
			if err := renderWAV(f, id, renderDuration, cfg.Audio.SampleRate, renderSeed); err != nil {
				_ = f.Close()
				return err
			}
			info, err := f.Stat()
			if err != nil {
				_ = f.Close()
				return errors.Wrap(err, "unable to stat output file")
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "unable to close output file")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s of %s to %s (%s).\n",
				renderDuration, id, out, humanize.Bytes(uint64(info.Size())))
			return nil
		},
	}
)

func init() {
	soundsPlayCmd.Flags().DurationVarP(&playDuration, "duration", "d", 0, "stop after this long (default: until interrupted)")

	soundsRenderCmd.Flags().DurationVarP(&renderDuration, "duration", "d", 10*time.Second, "length of the rendered audio")
	soundsRenderCmd.Flags().Int64Var(&renderSeed, "seed", 1, "random seed; the same seed renders the same audio")
	soundsRenderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default: <name>.wav)")

	soundsCmd.AddCommand(soundsListCmd, soundsSelectCmd, soundsPreviewCmd, soundsPlayCmd, soundsRenderCmd)
}

// parseSound resolves a soundscape from command arguments, so that
// `coffee shop` works without quotes.
func parseSound(args []string) (soundscape.ID, error) {
	id, err := soundscape.Parse(strings.Join(args, " "))
	if err != nil {
		return 0, errors.WithHint(err, "run `calmstep sounds list` to see the soundscapes")
	}
	return id, nil
}

func listSounds(w io.Writer, selected, fallback soundscape.ID) {
	for _, id := range soundscape.All() {
		marker := "  "
		switch {
		case id == selected:
			marker = keyword("* ")
		case !selected.Valid() && id == fallback:
			marker = subtle("~ ")
		}
		fmt.Fprintf(w, "%s%d  %-12s %s\n", marker, int(id), id, subtle(id.Description()))
	}
}

// renderWAV synthesizes d of id and encodes it as WAV.
func renderWAV(w io.WriteSeeker, id soundscape.ID, d time.Duration, sampleRate int, seed int64) error {
	left, right, err := soundscape.Render(id, d, sampleRate, seed)
	if err != nil {
		return errors.Wrapf(err, "render %s", id)
	}
	src, err := audio.NewSource(left, right, sampleRate)
	if err != nil {
		return err
	}
	return audio.EncodeWAV(w, src)
}

// playSound plays id through the output device and returns after d, or on
// interrupt when d is zero.
func playSound(w io.Writer, id soundscape.ID, d time.Duration, preview bool) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lm := lifecycle.New(lifecycle.OnSignal(func(os.Signal) { cancel() }))
	a.register(lm)
	lm.Start()

	var started bool
	if preview {
		started = a.player.StartPreview(id)
	} else {
		started = a.player.StartLoop(id)
	}

	var runErr error
	if started {
		fmt.Fprintf(w, "Playing %s. Press Ctrl+C to stop.\n", keyword(id.String()))
		wait(ctx, d)
	} else {
		runErr = errors.WithHint(audio.ErrUnavailable, "check --backend or the audio.backend setting")
	}

	if err := lm.Shutdown(); err != nil {
		log.Error("Shutdown failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
