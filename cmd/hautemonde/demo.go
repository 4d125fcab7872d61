package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/grandsalon/hautemonde/internal/bot"
	"github.com/grandsalon/hautemonde/internal/display"
	"github.com/grandsalon/hautemonde/internal/fileutil"
	"github.com/grandsalon/hautemonde/internal/game"
	"github.com/grandsalon/hautemonde/internal/protocol"
	"github.com/grandsalon/hautemonde/internal/randutil"
	"github.com/grandsalon/hautemonde/internal/relay"
	"github.com/grandsalon/hautemonde/internal/session"
)

// DemoCmd plays one complete game between built-in bots, relay and all, in a
// single process. It exercises the full wire path that separate host, join
// and bot processes would take.
type DemoCmd struct {
	Players     int    `kong:"default='4',help='Number of seats (2-5)'"`
	Timid       int    `kong:"default='1',help='How many seats bid timidly instead of on value'"`
	Seed        int64  `kong:"help='Deck seed (0 for random)'"`
	Timer       int    `kong:"default='0',help='Turn timer in seconds (0 disables it)'"`
	WriteResult string `kong:"help='Write final standings to a JSON file on exit'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
}

var demoNames = [...]string{"Anna", "Bruno", "Chloé", "Denis", "Elise"}

func (c *DemoCmd) Run() error {
	level := "info"
	if c.Debug {
		level = "debug"
	}
	logger := setupLogger(level)

	if c.Players < game.MinPlayers || c.Players > game.MaxPlayers {
		return fmt.Errorf("players must be between %d and %d", game.MinPlayers, game.MaxPlayers)
	}
	timid := c.Timid
	if timid > c.Players-1 {
		timid = c.Players - 1
	}

	seed := c.Seed
	if seed == 0 {
		seed = randutil.SeedFromTime(time.Now())
	}
	logger.Info("Starting demo game", "players", c.Players, "timid", timid, "seed", seed)

	// Deciders are drawn in seat order from one stream, so a seed pins every
	// budget in the game. Seat 0 hosts and always bids on value.
	rng := randutil.New(seed)
	deciders := make([]bot.Decider, c.Players)
	for i := range deciders {
		if i > 0 && i >= c.Players-timid {
			deciders[i] = bot.NewTimidBot()
		} else {
			deciders[i] = bot.NewValueBot(rng)
		}
	}

	// In-process relay on an ephemeral port.
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	wsURL := fmt.Sprintf("ws://%s/ws", ln.Addr())

	ctx, cancel := context.WithCancel(signalContext(logger))
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	srv := relay.NewServer(relay.DefaultConfig(), logger)
	g.Go(func() error { return srv.Serve(gctx, ln) })

	if err := waitForHealthy(gctx, fmt.Sprintf("http://%s", ln.Addr())); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	// The host seat creates the room; every other seat joins it.
	hostClient, err := session.Dial(wsURL, logger)
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	welcome, err := session.CreateRoom(hostClient, demoNames[0], c.Timer)
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	seats := []game.Seat{{ID: welcome.ParticipantID, Name: demoNames[0]}}
	for i := 1; i < c.Players; i++ {
		guestClient, err := session.Dial(wsURL, logger)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		w, err := session.JoinRoom(guestClient, welcome.RoomID, demoNames[i])
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		seats = append(seats, game.Seat{ID: w.ParticipantID, Name: demoNames[i]})

		b := bot.New(w.ParticipantID, deciders[i], logger)
		replica, err := session.NewReplica(session.Config{
			Transport:        guestClient,
			Listener:         b,
			Logger:           logger,
			RoomID:           w.RoomID,
			PlayerID:         w.ParticipantID,
			TurnTimerSeconds: w.TurnTimerSeconds,
		})
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		b.Drive(replica)
		g.Go(func() error { return replica.Run(gctx) })
	}

	hostBot := bot.New(welcome.ParticipantID, deciders[0], logger)
	host, err := session.NewHost(session.HostConfig{
		Config: session.Config{
			Transport:        hostClient,
			Listener:         hostBot,
			Logger:           logger,
			RoomID:           welcome.RoomID,
			PlayerID:         welcome.ParticipantID,
			TurnTimerSeconds: c.Timer,
		},
		Seats: seats,
		Seed:  seed,
	})
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	hostBot.Drive(host)
	g.Go(func() error { return host.Run(gctx) })

	if err := host.StartGame(); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	select {
	case <-gctx.Done():
	case <-hostBot.Done():
	}

	var runErr error
	if final := hostBot.Final(); final != nil {
		fmt.Println(display.NewRenderer().Ranking(final))
		if c.WriteResult != "" {
			runErr = writeResult(c.WriteResult, seed, final, logger)
		}
	}

	cancel()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func waitForHealthy(ctx context.Context, baseURL string) error {
	healthURL := baseURL + "/health"
	client := &http.Client{Timeout: 100 * time.Millisecond}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	return fmt.Errorf("relay failed to become healthy within timeout")
}

// demoResult is the JSON shape written by --write-result.
type demoResult struct {
	Seed    int64       `json:"seed"`
	Players []demoEntry `json:"players"`
}

type demoEntry struct {
	Rank    int    `json:"rank"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Money   int    `json:"money"`
	CastOut bool   `json:"castOut"`
}

func writeResult(path string, seed int64, snap *protocol.Snapshot, logger *log.Logger) error {
	result := demoResult{Seed: seed}
	for i, e := range snap.Ranking {
		name := e.PlayerID
		if p := snap.Player(e.PlayerID); p != nil {
			name = p.Name
		}
		result.Players = append(result.Players, demoEntry{
			Rank:    i + 1,
			ID:      e.PlayerID,
			Name:    name,
			Score:   e.Score,
			Money:   e.RemainingMoney,
			CastOut: e.CastOut,
		})
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	logger.Info("Result written", "file", path)
	return nil
}
