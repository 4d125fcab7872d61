package main

import (
	"fmt"
	"time"

	rand "math/rand/v2"

	"github.com/grandsalon/hautemonde/internal/bot"
	"github.com/grandsalon/hautemonde/internal/randutil"
	"github.com/grandsalon/hautemonde/internal/session"
)

// BotCmd joins a room with a built-in strategy in place of a human.
type BotCmd struct {
	Strategy string `kong:"arg,help='Bot strategy (value, timid)'"`
	Room     string `kong:"arg,help='Room code to join'"`
	Server   string `kong:"default='ws://localhost:8080/ws',help='Relay websocket URL'"`
	Name     string `kong:"default='',help='Display name (defaults to the strategy)'"`
	Seed     int64  `kong:"help='Decision seed (0 derives one from the clock)'"`
	LogLevel string `kong:"default='info',help='Log level (debug|info|warn|error)'"`
}

func (c *BotCmd) Run() error {
	logger := setupLogger(c.LogLevel)

	seed := c.Seed
	if seed == 0 {
		seed = randutil.SeedFromTime(time.Now())
	}
	decider, err := newDecider(c.Strategy, randutil.New(seed))
	if err != nil {
		return err
	}

	name := c.Name
	if name == "" {
		name = c.Strategy
	}

	client, err := session.Dial(c.Server, logger)
	if err != nil {
		return err
	}

	welcome, err := session.JoinRoom(client, c.Room, name)
	if err != nil {
		_ = client.Close()
		return err
	}
	logger.Info("Joined room", "room", welcome.RoomID, "participant", welcome.ParticipantID, "seed", seed)

	b := bot.New(welcome.ParticipantID, decider, logger)
	replica, err := session.NewReplica(session.Config{
		Transport:        client,
		Listener:         b,
		Logger:           logger,
		RoomID:           welcome.RoomID,
		PlayerID:         welcome.ParticipantID,
		TurnTimerSeconds: welcome.TurnTimerSeconds,
	})
	if err != nil {
		_ = client.Close()
		return err
	}
	b.Drive(replica)

	ctx := signalContext(logger)
	runErr := make(chan error, 1)
	go func() { runErr <- replica.Run(ctx) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-runErr:
		return err
	case <-b.Done():
		logger.Info("Game over, leaving the table")
		return nil
	}
}

// newDecider maps a strategy name to its decision logic.
func newDecider(strategy string, rng *rand.Rand) (bot.Decider, error) {
	switch strategy {
	case "value":
		return bot.NewValueBot(rng), nil
	case "timid":
		return bot.NewTimidBot(), nil
	default:
		return nil, fmt.Errorf("unknown bot %q (available: value, timid)", strategy)
	}
}
