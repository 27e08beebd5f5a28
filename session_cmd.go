package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/calmstep/calmstep/internal/lifecycle"
	"github.com/calmstep/calmstep/internal/phase"
	"github.com/calmstep/calmstep/ui"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	breatheCmd = &cobra.Command{
		Use:   "breathe",
		Short: "Start with the 4-7-8 breathing exercise",
		Long: paragraph(fmt.Sprintf("\n%s in for 4, hold for 7, out for 8, then rest. Three breaths unlock the focus timer.",
			keyword("Breathe"))),
		Example: paragraph("calmstep breathe\ncalmstep breathe --plain"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runTUI("breathe")
		},
	}

	focusCmd = &cobra.Command{
		Use:   "focus",
		Short: "Start the focus timer",
		Long: paragraph(fmt.Sprintf("\nFour %s sessions separated by breaks, with the selected soundscape playing while you work.",
			keyword("focus"))),
		Example: paragraph("calmstep focus\ncalmstep focus --work 50 --break 10\ncalmstep focus --plain"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("work") || cmd.Flags().Changed("break") {
				if err := rememberFocus(); err != nil {
					return err
				}
			}
			return runTUI("focus")
		},
	}
)

func init() {
	focusCmd.Flags().Int("work", phase.DefaultWorkMinutes, fmt.Sprintf("focus length in minutes (%d-%d)", phase.MinWorkMinutes, phase.MaxWorkMinutes))
	focusCmd.Flags().Int("break", phase.DefaultBreakMinutes, fmt.Sprintf("break length in minutes (%d-%d)", phase.MinBreakMinutes, phase.MaxBreakMinutes))
	focusCmd.Flags().Bool("auto-continue", false, "start the next focus session without waiting")

	_ = viper.BindPFlag("focus.work_minutes", focusCmd.Flags().Lookup("work"))
	_ = viper.BindPFlag("focus.break_minutes", focusCmd.Flags().Lookup("break"))
	_ = viper.BindPFlag("focus.auto_continue", focusCmd.Flags().Lookup("auto-continue"))
}

// rememberFocus stores the durations given on the command line so they win
// over the ones kept from the last session.
func rememberFocus() error {
	settings, err := openSettings(cfg)
	if err != nil {
		return err
	}
	return settings.Save(ui.FocusKey, ui.FocusDurations{
		Work:  cfg.Focus.WorkMinutes,
		Break: cfg.Focus.BreakMinutes,
	})
}

// focusDurations returns the stored durations when they are valid and the
// configured ones otherwise.
func (a *app) focusDurations() ui.FocusDurations {
	d := ui.FocusDurations{Work: a.cfg.Focus.WorkMinutes, Break: a.cfg.Focus.BreakMinutes}
	saved := d
	if a.settings.Load(ui.FocusKey, &saved) && phase.ValidateFocusDurations(saved.Work, saved.Break) == nil {
		return saved
	}
	return d
}

// runPlain runs a session without the TUI, printing each phase as a line.
func runPlain(start string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	var (
		seq   phase.Sequence
		title string
		sound bool
	)
	switch start {
	case "focus":
		d := a.focusDurations()
		seq, err = phase.Focus(d.Work, d.Break, a.cfg.Focus.AutoContinue)
		if err != nil {
			return err
		}
		title, sound = "Focus", true
		if err := a.player.Select(a.selected()); err != nil {
			log.Warn("No soundscape selected", "error", err)
		}
	default:
		seq, title = phase.Breathing(), "Breathing"
	}

	s, err := newPlainSession(seq, os.Stdout, os.Stdin)
	if err != nil {
		return err
	}
	if sound {
		s.player = a.player
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lm := lifecycle.New(lifecycle.OnSignal(func(os.Signal) { cancel() }))
	a.register(lm)
	lm.Register(title+" timer", s.runner)
	lm.Start()

	fmt.Printf("%s: %d %s. Press Ctrl+C to stop.\n\n", title, seq.Cycles, cycleNoun(seq.Cycles))
	runErr := s.run(ctx)
	if err := lm.Shutdown(); err != nil {
		log.Error("Shutdown failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func cycleNoun(n int) string {
	if n == 1 {
		return "cycle"
	}
	return "cycles"
}

// loopPlayer is the part of the playback manager a plain session drives.
type loopPlayer interface {
	StartSelected() bool
	StopLoop()
}

// plainSession drives an engine on the wall clock and reports transitions
// as text. Held boundaries wait for a line on in.
type plainSession struct {
	out    io.Writer
	in     *bufio.Reader
	engine *phase.Engine
	runner *phase.Runner

	mu      sync.Mutex
	player  loopPlayer
	playing bool
}

func newPlainSession(seq phase.Sequence, out io.Writer, in io.Reader, opts ...phase.RunnerOption) (*plainSession, error) {
	s := &plainSession{out: out, in: bufio.NewReader(in)}
	e, err := phase.New(seq, phase.WithObserver(s.onTransition))
	if err != nil {
		return nil, err
	}
	s.engine = e
	s.runner = phase.NewRunner(e, opts...)
	return s, nil
}

func (s *plainSession) run(ctx context.Context) error {
	defer s.stopLoop()

	for {
		s.announce(s.engine.Snapshot())
		if !s.runner.Start(ctx) {
			return errors.Newf("session cannot start from %s", s.engine.Status())
		}
		s.syncLoop()

		select {
		case <-ctx.Done():
		case <-s.runner.Done():
		}
		if ctx.Err() != nil {
			s.runner.Stop()
			fmt.Fprintln(s.out, "Stopped.")
			return nil
		}
		s.syncLoop()

		snap := s.engine.Snapshot()
		switch snap.Status {
		case phase.StatusTerminal:
			fmt.Fprintln(s.out, phase.CompleteLabel+".")
			return nil
		case phase.StatusHeld:
			fmt.Fprintf(s.out, "Press Enter to start the %s %s session.\n",
				humanize.Ordinal(snap.Completed+1), phase.Label(snap.Kind))
			if !s.waitForEnter(ctx) {
				fmt.Fprintln(s.out, "Stopped.")
				return nil
			}
		default:
			return errors.Newf("session stopped while %s", snap.Status)
		}
	}
}

func (s *plainSession) onTransition(tr phase.Transition) {
	if tr.CycleCompleted {
		fmt.Fprintf(s.out, "%s cycle complete.\n", humanize.Ordinal(tr.Completed))
	}
	if tr.Skipped {
		fmt.Fprintln(s.out, "Skipping the rest of the last cycle.")
	}
	s.syncLoop()
	if tr.Terminal || tr.Held {
		return
	}
	s.announce(s.engine.Snapshot())
}

func (s *plainSession) announce(snap phase.Snapshot) {
	line := fmt.Sprintf("%s (%s)", phase.Label(snap.Kind), time.Duration(snap.Remaining)*time.Second)
	if in := phase.Instruction(snap.Kind); in != "" {
		line += ": " + in
	}
	fmt.Fprintln(s.out, line)
}

// waitForEnter reports whether a line was read before ctx ended. End of
// input counts as a stop.
func (s *plainSession) waitForEnter(ctx context.Context) bool {
	read := make(chan error, 1)
	go func() {
		_, err := s.in.ReadString('\n')
		read <- err
	}()

	select {
	case <-ctx.Done():
		return false
	case err := <-read:
		return err == nil
	}
}

// syncLoop plays the selected soundscape while a work phase is running.
func (s *plainSession) syncLoop() {
	snap := s.engine.Snapshot()
	want := snap.Running() && snap.Kind == phase.Work

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil || want == s.playing {
		return
	}
	if want {
		s.playing = s.player.StartSelected()
		return
	}
	s.player.StopLoop()
	s.playing = false
}

func (s *plainSession) stopLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil && s.playing {
		s.player.StopLoop()
		s.playing = false
	}
}
