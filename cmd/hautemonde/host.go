package main

import (
	"time"

	"github.com/grandsalon/hautemonde/internal/randutil"
	"github.com/grandsalon/hautemonde/internal/session"
)

// HostCmd creates a room and runs the authoritative seat in it.
type HostCmd struct {
	Server   string `kong:"default='ws://localhost:8080/ws',help='Relay websocket URL'"`
	Name     string `kong:"default='',help='Display name (defaults to $USER or \"Player\")'"`
	Timer    int    `kong:"default='30',help='Turn timer in seconds (0 disables it)'"`
	Seed     int64  `kong:"help='Deck seed (0 derives one from the clock)'"`
	LogFile  string `kong:"default='hautemonde.log',help='Log file (the terminal belongs to the table)'"`
	LogLevel string `kong:"default='info',help='Log level (debug|info|warn|error)'"`
}

func (c *HostCmd) Run() error {
	logger, closeLog, err := setupFileLogger(c.LogFile, c.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	name := playerName(c.Name)

	client, err := session.Dial(c.Server, logger)
	if err != nil {
		return err
	}

	welcome, err := session.CreateRoom(client, name, c.Timer)
	if err != nil {
		_ = client.Close()
		return err
	}

	seed := c.Seed
	if seed == 0 {
		seed = randutil.SeedFromTime(time.Now())
	}

	logger.Info("Hosting room",
		"room", welcome.RoomID,
		"participant", welcome.ParticipantID,
		"seed", seed,
		"turn_timer_seconds", welcome.TurnTimerSeconds)

	return runTable(tableConfig{
		logger:  logger,
		client:  client,
		welcome: welcome,
		seed:    seed,
		host:    true,
	})
}
