package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/grandsalon/hautemonde/internal/display"
	"github.com/grandsalon/hautemonde/internal/protocol"
	"github.com/grandsalon/hautemonde/internal/session"
	"github.com/grandsalon/hautemonde/internal/tui"
)

// tableConfig is what runTable needs to put a seated player on screen.
type tableConfig struct {
	logger  *log.Logger
	client  *session.Client
	welcome *protocol.RoomWelcomeData
	seed    int64 // host only
	host    bool
}

// runTable runs the interactive client for one seat: the session loop and the
// TUI side by side, each shutting the other down when it finishes.
func runTable(tc tableConfig) error {
	// The feed closes over program so the session can be built first; the
	// program is assigned before any goroutine can fire a callback.
	var program *tea.Program
	feed := tui.NewFeed(func(msg tea.Msg) { program.Send(msg) })

	scfg := session.Config{
		Transport:        tc.client,
		Listener:         feed,
		Logger:           tc.logger,
		RoomID:           tc.welcome.RoomID,
		PlayerID:         tc.welcome.ParticipantID,
		TurnTimerSeconds: tc.welcome.TurnTimerSeconds,
	}
	mcfg := tui.Config{
		PlayerID: tc.welcome.ParticipantID,
		Logger:   tc.logger,
	}

	var run func(context.Context) error
	if tc.host {
		h, err := session.NewHost(session.HostConfig{Config: scfg, Seed: tc.seed})
		if err != nil {
			return err
		}
		mcfg.Table, mcfg.Starter = h, h
		run = h.Run
	} else {
		r, err := session.NewReplica(scfg)
		if err != nil {
			return err
		}
		mcfg.Table = r
		run = r.Run
	}

	model := tui.New(mcfg)
	program = tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Blank the UI when the relay connection goes away.
		defer program.Send(tui.QuitMsg{})
		return run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})
	err := g.Wait()

	// The alt screen is gone; leave the outcome on the terminal.
	if v := model.Latest(); v != nil && v.Finished() {
		fmt.Println(display.NewRenderer().Ranking(v))
	}
	return err
}

// playerName falls back to the login name the way most tables would expect.
func playerName(flag string) string {
	if flag != "" {
		return flag
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "Player"
}
