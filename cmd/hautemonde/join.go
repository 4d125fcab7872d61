package main

import (
	"github.com/grandsalon/hautemonde/internal/protocol"
	"github.com/grandsalon/hautemonde/internal/session"
)

// JoinCmd claims a seat in an existing room.
type JoinCmd struct {
	Room     string `kong:"arg,help='Room code to join'"`
	Server   string `kong:"default='ws://localhost:8080/ws',help='Relay websocket URL'"`
	Name     string `kong:"default='',help='Display name (defaults to $USER or \"Player\")'"`
	Rejoin   string `kong:"help='Participant ID from an earlier session, to reclaim that seat'"`
	LogFile  string `kong:"default='hautemonde.log',help='Log file (the terminal belongs to the table)'"`
	LogLevel string `kong:"default='info',help='Log level (debug|info|warn|error)'"`
}

func (c *JoinCmd) Run() error {
	logger, closeLog, err := setupFileLogger(c.LogFile, c.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := session.Dial(c.Server, logger)
	if err != nil {
		return err
	}

	var welcome *protocol.RoomWelcomeData
	if c.Rejoin != "" {
		welcome, err = session.RejoinRoom(client, c.Room, c.Rejoin)
	} else {
		welcome, err = session.JoinRoom(client, c.Room, playerName(c.Name))
	}
	if err != nil {
		_ = client.Close()
		return err
	}

	logger.Info("Joined room",
		"room", welcome.RoomID,
		"participant", welcome.ParticipantID,
		"seat", welcome.Seat)

	return runTable(tableConfig{
		logger:  logger,
		client:  client,
		welcome: welcome,
		host:    false,
	})
}
