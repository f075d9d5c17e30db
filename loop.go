package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

var (
	sentenceStyle = lipgloss.NewStyle().Italic(true)
	statusStyle   = lipgloss.NewStyle().Faint(true)
)

// viewer renders the current document window for the terminal.
type viewer interface {
	View() string
}

// runLoop drives interactive playback: keyboard commands in raw mode on
// one side, controller events redrawing the view on the other.
func runLoop(ctx context.Context, ctrl *speech.Controller, adapter speech.DocumentAdapter, view viewer) error {
	events := ctrl.Subscribe()
	defer ctrl.Unsubscribe(events)

	adapter.OnStartHere(func(loc speech.Locator) {
		_ = ctrl.PlayFromLocator(ctx, loc, 0)
	})

	go func() {
		for ev := range events {
			switch ev.Type {
			case speech.EventSentence:
				redraw(view)
				if ev.Sentence != nil {
					fmt.Println(sentenceStyle.Render(ev.Sentence.Text))
				}
			case speech.EventPlaybackEnded:
				fmt.Println(statusStyle.Render("end of document"))
			case speech.EventStopped:
				if ev.Err != nil {
					fmt.Println(statusStyle.Render("playback error: " + ev.Err.Error()))
				}
			}
		}
	}()

	// Pick up where the reader left off, else start at the visible
	// position.
	if err := ctrl.ResumeFromBookmark(ctx); err != nil {
		return err
	}
	if ctrl.State() == speech.StateIdle {
		loc, err := adapter.Locator()
		if err != nil {
			return err
		}
		if loc != nil {
			if err := ctrl.PlayFromLocator(ctx, *loc, 0); err != nil {
				return err
			}
		}
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Non-interactive: play until the stream ends.
		done := ctrl.Subscribe()
		defer ctrl.Unsubscribe(done)
		for ev := range done {
			if ev.Type == speech.EventPlaybackEnded {
				return nil
			}
		}
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("unable to enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState) //nolint:errcheck

	redraw(view)
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return nil
		}
		switch buf[0] {
		case 'q', 3: // ctrl-c
			_ = ctrl.Stop()
			return nil
		case ' ':
			if ctrl.State() == speech.StatePlaying {
				_ = ctrl.Pause()
			} else {
				_ = ctrl.Resume(ctx)
			}
		case 'n':
			_ = ctrl.NextSentence(ctx)
		case 'p':
			_ = ctrl.PrevSentence(ctx)
		case 's':
			_ = ctrl.Stop()
		case '+':
			ctrl.SetRate(ctrl.Settings().Rate + 0.25)
		case '-':
			ctrl.SetRate(ctrl.Settings().Rate - 0.25)
		}
	}
}

func redraw(view viewer) {
	fmt.Print("\033[2J\033[H")
	fmt.Println(view.View())
}
