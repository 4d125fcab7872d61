package relay

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the relay's on-disk configuration: a single relay block in an
// HCL file.
type Config struct {
	Relay Settings `hcl:"relay,block"`
}

// Settings contains relay-level configuration.
type Settings struct {
	Address          string `hcl:"address,optional"`
	Port             int    `hcl:"port,optional"`
	LogLevel         string `hcl:"log_level,optional"`
	LogFile          string `hcl:"log_file,optional"`
	MaxRooms         int    `hcl:"max_rooms,optional"`
	RoomSize         int    `hcl:"room_size,optional"`
	TurnTimerSeconds int    `hcl:"turn_timer_seconds,optional"`
}

// DefaultTurnTimerSeconds applies to rooms whose creator did not pick a
// turn timer.
const DefaultTurnTimerSeconds = 30

// DefaultConfig returns the relay configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Relay: Settings{
			Address:          "localhost",
			Port:             8080,
			LogLevel:         "info",
			MaxRooms:         64,
			RoomSize:         MaxRoomSize,
			TurnTimerSeconds: DefaultTurnTimerSeconds,
		},
	}
}

// LoadConfig loads relay configuration from an HCL file. A missing file is
// not an error; it yields DefaultConfig.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Relay.Address == "" {
		config.Relay.Address = "localhost"
	}
	if config.Relay.Port == 0 {
		config.Relay.Port = 8080
	}
	if config.Relay.LogLevel == "" {
		config.Relay.LogLevel = "info"
	}
	if config.Relay.MaxRooms == 0 {
		config.Relay.MaxRooms = 64
	}
	if config.Relay.RoomSize == 0 {
		config.Relay.RoomSize = MaxRoomSize
	}
	if config.Relay.TurnTimerSeconds == 0 {
		config.Relay.TurnTimerSeconds = DefaultTurnTimerSeconds
	}

	return &config, nil
}

// Validate validates the relay configuration.
func (c *Config) Validate() error {
	if c.Relay.Port < 1 || c.Relay.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Relay.Port)
	}
	if c.Relay.MaxRooms < 1 {
		return fmt.Errorf("max_rooms must be positive, got %d", c.Relay.MaxRooms)
	}
	if c.Relay.RoomSize < 2 || c.Relay.RoomSize > MaxRoomSize {
		return fmt.Errorf("room_size must be between 2 and %d, got %d", MaxRoomSize, c.Relay.RoomSize)
	}
	if c.Relay.TurnTimerSeconds < 0 {
		return fmt.Errorf("turn_timer_seconds must not be negative, got %d", c.Relay.TurnTimerSeconds)
	}
	return nil
}

// ListenAddress returns the host:port the relay binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Relay.Address, c.Relay.Port)
}
