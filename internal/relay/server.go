// Package relay implements the rendezvous server that forwards envelopes
// between the participants of a room. The relay owns delivery and seating;
// hosts own the rules. Gameplay envelopes are fanned out verbatim to every
// connected participant, the sender included.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/grandsalon/hautemonde/internal/protocol"
	"github.com/grandsalon/hautemonde/internal/roomid"
)

// Server accepts WebSocket connections and routes envelopes between rooms.
type Server struct {
	cfg         *Config
	upgrader    websocket.Upgrader
	rooms       map[string]*Room
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	lastStamp   atomic.Int64
}

// NewServer creates a relay server from its configuration.
func NewServer(cfg *Config, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Rooms are joined by secret ID, not by origin
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rooms:       make(map[string]*Room),
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("relay"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs the relay on its configured address until ctx is cancelled or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("relay: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the relay on an existing listener. Callers that need an
// ephemeral port listen on ":0" themselves and read the bound address back
// off ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	srv := &http.Server{Handler: mux}

	s.logger.Info("Starting relay", "addr", ln.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Stop closes every connection and halts the lifecycle loop.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
}

// run handles connection lifecycle.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				// The seat survives; its owner may rejoin with the
				// participant ID from the welcome envelope.
				if room := s.room(conn.RoomID()); room != nil {
					room.Disconnect(conn)
					s.broadcastRoomUpdate(room)
				}
				_ = conn.Close()
			}
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := newConnection(conn, s, s.logger)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// stamp returns a strictly increasing wall-clock time so relay-origin
// envelopes never reuse a dedup key.
func (s *Server) stamp() time.Time {
	for {
		now := time.Now().UnixMilli()
		last := s.lastStamp.Load()
		if now <= last {
			now = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, now) {
			return time.UnixMilli(now)
		}
	}
}

// route dispatches one incoming envelope: room requests are answered by the
// relay itself, everything else is fanned out to the sender's room.
func (s *Server) route(c *Connection, env *protocol.Envelope) {
	s.logger.Debug("Received envelope", "type", env.Type, "room", env.RoomID, "participant", c.ParticipantID())

	if !env.Type.Valid() {
		c.sendError(protocol.CodeBadRequest, "unknown event type: "+env.Type.String())
		return
	}

	if env.Type.IsRoomRequest() {
		s.handleRoomRequest(c, env)
		return
	}

	room := s.room(c.RoomID())
	if room == nil {
		c.sendError(protocol.CodeNotInRoom, "join a room before sending game events")
		return
	}

	recipients := room.Broadcast(env)
	s.logger.Debug("Relayed envelope", "type", env.Type, "room", room.ID(), "recipients", recipients)
}

func (s *Server) handleRoomRequest(c *Connection, env *protocol.Envelope) {
	switch env.Type {
	case protocol.EventRoomCreate:
		s.handleRoomCreate(c, env)
	case protocol.EventRoomJoin:
		s.handleRoomJoin(c, env)
	case protocol.EventRoomRejoin:
		s.handleRoomRejoin(c, env)
	case protocol.EventRoomLeave:
		s.handleRoomLeave(c)
	case protocol.EventRoomInfo:
		s.handleRoomInfo(c, env)
	}
}

func (s *Server) handleRoomCreate(c *Connection, env *protocol.Envelope) {
	var data protocol.RoomCreateData
	if err := env.Decode(&data); err != nil {
		c.sendError(protocol.CodeBadRequest, "failed to parse room create data")
		return
	}
	if data.Name == "" {
		c.sendError(protocol.CodeBadRequest, "participant name required")
		return
	}
	if c.RoomID() != "" {
		c.sendError(protocol.CodeBadRequest, "already in a room")
		return
	}

	turnTimer := data.TurnTimerSeconds
	if turnTimer == 0 {
		turnTimer = s.cfg.Relay.TurnTimerSeconds
	}

	id := roomid.Generate()
	room := NewRoom(id, s.cfg.Relay.RoomSize, turnTimer, s.logger)

	s.mu.Lock()
	if len(s.rooms) >= s.cfg.Relay.MaxRooms {
		s.mu.Unlock()
		c.sendError(protocol.CodeBadRequest, "relay is at room capacity")
		return
	}
	s.rooms[id] = room
	s.mu.Unlock()

	p, err := room.Join(data.Name, c)
	if err != nil {
		c.sendError(protocol.CodeRoomFull, err.Error())
		return
	}
	c.SetParticipant(p.ID)
	c.SetRoom(id)

	s.logger.Info("Room created", "room", id, "host", p.ID)
	s.sendWelcome(c, room, p)
}

func (s *Server) handleRoomJoin(c *Connection, env *protocol.Envelope) {
	var data protocol.RoomJoinData
	if err := env.Decode(&data); err != nil {
		c.sendError(protocol.CodeBadRequest, "failed to parse room join data")
		return
	}
	if data.Name == "" {
		c.sendError(protocol.CodeBadRequest, "participant name required")
		return
	}
	if c.RoomID() != "" {
		c.sendError(protocol.CodeBadRequest, "already in a room")
		return
	}

	room := s.room(roomid.Normalize(env.RoomID))
	if room == nil {
		c.sendError(protocol.CodeRoomNotFound, "no such room: "+env.RoomID)
		return
	}

	p, err := room.Join(data.Name, c)
	if err != nil {
		c.sendError(protocol.CodeRoomFull, err.Error())
		return
	}
	c.SetParticipant(p.ID)
	c.SetRoom(room.ID())

	s.sendWelcome(c, room, p)
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleRoomRejoin(c *Connection, env *protocol.Envelope) {
	var data protocol.RoomRejoinData
	if err := env.Decode(&data); err != nil {
		c.sendError(protocol.CodeBadRequest, "failed to parse room rejoin data")
		return
	}
	if c.RoomID() != "" {
		c.sendError(protocol.CodeBadRequest, "already in a room")
		return
	}

	room := s.room(roomid.Normalize(env.RoomID))
	if room == nil {
		c.sendError(protocol.CodeRoomNotFound, "no such room: "+env.RoomID)
		return
	}

	p, err := room.Rejoin(data.ParticipantID, c)
	if err != nil {
		c.sendError(protocol.CodeUnknownParticipant, err.Error())
		return
	}
	c.SetParticipant(p.ID)
	c.SetRoom(room.ID())

	s.sendWelcome(c, room, p)
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleRoomLeave(c *Connection) {
	room := s.room(c.RoomID())
	if room == nil {
		c.sendError(protocol.CodeNotInRoom, "not in a room")
		return
	}

	room.Leave(c.ParticipantID())
	c.SetParticipant("")
	c.SetRoom("")

	if room.IsEmpty() {
		s.mu.Lock()
		delete(s.rooms, room.ID())
		s.mu.Unlock()
		s.logger.Info("Room closed", "room", room.ID())
		return
	}
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleRoomInfo(c *Connection, env *protocol.Envelope) {
	id := roomid.Normalize(env.RoomID)
	if id == "" {
		id = c.RoomID()
	}

	room := s.room(id)
	if room == nil {
		c.sendError(protocol.CodeRoomNotFound, "no such room: "+env.RoomID)
		return
	}

	update, err := protocol.NewEnvelope(protocol.EventRoomUpdate, room.ID(), s.stamp(), s.roomUpdateData(room))
	if err != nil {
		s.logger.Error("Failed to create room update", "error", err)
		return
	}
	_ = c.Send(update)
}

func (s *Server) sendWelcome(c *Connection, room *Room, p *Participant) {
	env, err := protocol.NewEnvelope(protocol.EventRoomWelcome, room.ID(), s.stamp(), protocol.RoomWelcomeData{
		RoomID:           room.ID(),
		ParticipantID:    p.ID,
		Seat:             p.Seat,
		HostID:           room.HostID(),
		TurnTimerSeconds: room.TurnTimerSeconds(),
		Participants:     room.Participants(),
	})
	if err != nil {
		s.logger.Error("Failed to create welcome envelope", "error", err)
		return
	}
	_ = c.Send(env)
}

func (s *Server) broadcastRoomUpdate(room *Room) {
	env, err := protocol.NewEnvelope(protocol.EventRoomUpdate, room.ID(), s.stamp(), s.roomUpdateData(room))
	if err != nil {
		s.logger.Error("Failed to create room update", "error", err)
		return
	}
	room.Broadcast(env)
}

func (s *Server) roomUpdateData(room *Room) protocol.RoomUpdateData {
	return protocol.RoomUpdateData{
		RoomID:           room.ID(),
		HostID:           room.HostID(),
		TurnTimerSeconds: room.TurnTimerSeconds(),
		Participants:     room.Participants(),
	}
}

// room looks a room up by ID, nil when absent.
func (s *Server) room(id string) *Room {
	if id == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[id]
}

// RoomCount reports how many rooms are open.
func (s *Server) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
