package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/grandsalon/hautemonde/internal/protocol"
)

// Config carries what every session needs.
type Config struct {
	// Transport is the connection to the room. Required. The session owns
	// it once Run starts and closes it on shutdown.
	Transport Transport
	// Listener observes progress; nil means no observer.
	Listener Listener
	// Logger defaults to a discard logger.
	Logger *log.Logger
	// Clock drives the turn timer; nil means the real clock.
	Clock quartz.Clock
	// RoomID and PlayerID come from the room welcome. Required.
	RoomID   string
	PlayerID string
	// TurnTimerSeconds arms the implicit-pass timer; zero disables it.
	TurnTimerSeconds int
	// DedupCapacity bounds the duplicate filter; zero means the default.
	DedupCapacity int
}

func (cfg *Config) validate() error {
	if cfg.Transport == nil {
		return errors.New("session: transport is required")
	}
	if cfg.RoomID == "" {
		return errors.New("session: room ID is required")
	}
	if cfg.PlayerID == "" {
		return errors.New("session: player ID is required")
	}
	return nil
}

// core is the machinery shared by Host and Replica: monotonic stamping,
// duplicate filtering, the turn timer and the receive loop.
type core struct {
	transport        Transport
	listener         Listener
	logger           *log.Logger
	clock            quartz.Clock
	timer            *TurnTimer
	roomID           string
	playerID         string
	turnTimerSeconds int

	mu        sync.Mutex
	dedup     *protocol.Deduper
	lastStamp int64
}

func newCore(cfg Config, prefix string) (*core, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	listener := cfg.Listener
	if listener == nil {
		listener = NopListener{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &core{
		transport:        cfg.Transport,
		listener:         listener,
		logger:           logger.WithPrefix(prefix).With("player", cfg.PlayerID),
		clock:            clock,
		timer:            NewTurnTimer(clock, time.Duration(cfg.TurnTimerSeconds)*time.Second),
		roomID:           cfg.RoomID,
		playerID:         cfg.PlayerID,
		turnTimerSeconds: cfg.TurnTimerSeconds,
		dedup:            protocol.NewDeduper(cfg.DedupCapacity),
	}, nil
}

// stamp returns a strictly increasing clock time, so this sender never
// reuses a (type, timestamp) dedup key.
func (c *core) stamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now().UnixMilli()
	if now <= c.lastStamp {
		now = c.lastStamp + 1
	}
	c.lastStamp = now
	return time.UnixMilli(now)
}

// send stamps and transmits an envelope. The relay echoes every envelope
// back to its sender, so the key is marked seen before it leaves.
func (c *core) send(et protocol.EventType, payload any) error {
	env, err := protocol.NewEnvelope(et, c.roomID, c.stamp(), payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.dedup.Seen(env)
	c.mu.Unlock()

	return c.transport.Send(env)
}

func (c *core) seen(env *protocol.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dedup.Seen(env)
}

// run receives until the transport closes or ctx is done, handing each first
// delivery to handle. Duplicates are dropped here, so handle sees every
// envelope at most once.
func (c *core) run(ctx context.Context, handle func(*protocol.Envelope)) error {
	defer c.timer.Stop()

	inbound := make(chan *protocol.Envelope)
	errc := make(chan error, 1)
	go func() {
		for {
			env, err := c.transport.Receive()
			if err != nil {
				errc <- err
				return
			}
			select {
			case inbound <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case env := <-inbound:
			if c.seen(env) {
				c.logger.Debug("Dropped duplicate envelope", "key", env.DedupKey())
				continue
			}
			handle(env)

		case err := <-errc:
			if errors.Is(err, ErrTransportClosed) {
				return nil
			}
			return err

		case <-ctx.Done():
			_ = c.transport.Close()
			return nil
		}
	}
}

// armTimer points the turn timer at the seat the snapshot says is up, or
// stops it when no auction is open.
func (c *core) armTimer(snap *protocol.Snapshot, fire func(playerID string, turnIndex int)) {
	current := snap.CurrentPlayer()
	if snap.Auction == nil || snap.Finished() || current == nil {
		c.timer.Stop()
		return
	}
	c.timer.Arm(current.ID, snap.TurnIndex, fire)
}
