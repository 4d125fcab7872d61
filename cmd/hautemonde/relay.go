package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/grandsalon/hautemonde/internal/relay"
)

// RelayCmd contains relay configuration
type RelayCmd struct {
	Config string `kong:"default='hautemonde.hcl',help='Path to HCL configuration file'"`
	Addr   string `kong:"help='Listen address as host:port (overrides config)'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *RelayCmd) Run() error {
	cfg, err := relay.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	if c.Addr != "" {
		host, portStr, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid --addr port: %w", err)
		}
		cfg.Relay.Address = host
		cfg.Relay.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.Relay.LogLevel
	if c.Debug {
		level = "debug"
	}

	logger := setupLogger(level)
	if cfg.Relay.LogFile != "" {
		fileLogger, closeLog, err := setupFileLogger(cfg.Relay.LogFile, level)
		if err != nil {
			return err
		}
		defer closeLog()
		logger = fileLogger
	}

	logger.Info("Starting relay",
		"addr", cfg.ListenAddress(),
		"max_rooms", cfg.Relay.MaxRooms,
		"room_size", cfg.Relay.RoomSize,
		"turn_timer_seconds", cfg.Relay.TurnTimerSeconds)

	ctx := signalContext(logger)
	return relay.NewServer(cfg, logger).Start(ctx)
}
